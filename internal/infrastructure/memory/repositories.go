package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.StorageLocationRepository = (*LocationRepo)(nil)
	_ repository.BatchRepository           = (*BatchRepo)(nil)
	_ repository.LedgerRepository          = (*LedgerRepo)(nil)
	_ repository.TransferRepository        = (*TransferRepo)(nil)
	_ repository.DemandRepository          = (*DemandRepo)(nil)
)

// LocationRepo ubicaciones en memoria.
type LocationRepo struct{ v *view }

func (r *LocationRepo) Create(_ context.Context, location *entity.StorageLocation) error {
	if _, ok := r.v.location(location.ID); ok {
		return domain.ErrDuplicate
	}
	return r.v.write(func(ov *overlay) error {
		ov.locations[location.ID] = *location
		return nil
	})
}

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.StorageLocation, error) {
	l, ok := r.v.location(id)
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *LocationRepo) List(_ context.Context) ([]*entity.StorageLocation, error) {
	all := r.v.allLocations()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	out := make([]*entity.StorageLocation, 0, len(all))
	for i := range all {
		out = append(out, &all[i])
	}
	return out, nil
}

func (r *LocationRepo) UpdateStatus(_ context.Context, id, status string) error {
	l, ok := r.v.location(id)
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	return r.v.write(func(ov *overlay) error {
		ov.locations[id] = l
		return nil
	})
}

// BatchRepo lotes en memoria.
type BatchRepo struct{ v *view }

func (r *BatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	if _, ok := r.v.batch(batch.ID); ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.v.batchByRecord(batch.SourceProcessingRecordID); ok {
		return domain.ErrDuplicate
	}
	return r.v.write(func(ov *overlay) error {
		ov.batches = append(ov.batches, *batch)
		return nil
	})
}

func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	b, ok := r.v.batch(id)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *BatchRepo) GetByProcessingRecord(_ context.Context, processingRecordID string) (*entity.Batch, error) {
	b, ok := r.v.batchByRecord(processingRecordID)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *BatchRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Batch, error) {
	out := make([]*entity.Batch, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.v.batch(id); ok {
			out = append(out, &b)
		}
	}
	return out, nil
}

// LedgerRepo libro de lotes en memoria (append-only).
type LedgerRepo struct{ v *view }

func (r *LedgerRepo) Append(_ context.Context, entries ...*entity.LedgerEntry) error {
	return r.v.write(func(ov *overlay) error {
		for _, e := range entries {
			ov.ledger = append(ov.ledger, *e)
		}
		return nil
	})
}

func (r *LedgerRepo) SumByCell(_ context.Context, locationID string, sizeClass int) (int, decimal.Decimal, error) {
	qty, weight := sum(r.v.entries(func(e entity.LedgerEntry) bool {
		return e.LocationID == locationID && e.SizeClass == sizeClass
	}))
	return qty, weight, nil
}

func (r *LedgerRepo) SumByBatch(_ context.Context, batchID string) (int, decimal.Decimal, error) {
	qty, weight := sum(r.v.entries(func(e entity.LedgerEntry) bool { return e.BatchID == batchID }))
	return qty, weight, nil
}

func (r *LedgerRepo) ListByCell(_ context.Context, locationID string, sizeClass int) ([]entity.LedgerEntry, error) {
	return r.v.entries(func(e entity.LedgerEntry) bool {
		return e.LocationID == locationID && e.SizeClass == sizeClass
	}), nil
}

func (r *LedgerRepo) ListByBatch(_ context.Context, batchID string) ([]entity.LedgerEntry, error) {
	return r.v.entries(func(e entity.LedgerEntry) bool { return e.BatchID == batchID }), nil
}

func (r *LedgerRepo) ListByLocation(_ context.Context, locationID string) ([]entity.LedgerEntry, error) {
	return r.v.entries(func(e entity.LedgerEntry) bool { return e.LocationID == locationID }), nil
}

func (r *LedgerRepo) ListAll(_ context.Context) ([]entity.LedgerEntry, error) {
	return r.v.entries(nil), nil
}

func (r *LedgerRepo) Count(_ context.Context) (int, error) {
	return len(r.v.entries(nil)), nil
}

func sum(entries []entity.LedgerEntry) (int, decimal.Decimal) {
	qty, weight := 0, decimal.Zero
	for _, e := range entries {
		qty += e.Quantity
		weight = weight.Add(e.WeightKg)
	}
	return qty, weight
}

// TransferRepo traslados en memoria.
type TransferRepo struct{ v *view }

func (r *TransferRepo) Create(_ context.Context, transfer *entity.TransferRequest) error {
	if _, ok := r.v.transfer(transfer.ID); ok {
		return domain.ErrDuplicate
	}
	t := cloneTransfer(*transfer)
	return r.v.write(func(ov *overlay) error {
		ov.transfers[t.ID] = t
		ov.created[t.ID] = true
		return nil
	})
}

func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.TransferRequest, error) {
	t, ok := r.v.transfer(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TransferRepo) Update(_ context.Context, transfer *entity.TransferRequest) error {
	current, ok := r.v.transfer(transfer.ID)
	if !ok {
		return domain.ErrNotFound
	}
	current.Status = transfer.Status
	current.ApprovedBy = transfer.ApprovedBy
	current.DecisionReason = transfer.DecisionReason
	current.DecidedAt = transfer.DecidedAt
	current.CompletedAt = transfer.CompletedAt
	current.UpdatedAt = transfer.UpdatedAt
	updated := cloneTransfer(current)
	return r.v.write(func(ov *overlay) error {
		ov.transfers[updated.ID] = updated
		return nil
	})
}

func (r *TransferRepo) List(_ context.Context, status string) ([]*entity.TransferRequest, error) {
	all := r.v.allTransfers()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	out := make([]*entity.TransferRequest, 0, len(all))
	for i := range all {
		if status == "" || all[i].Status == status {
			out = append(out, &all[i])
		}
	}
	return out, nil
}

func (r *TransferRepo) ListPendingBySource(ctx context.Context, sourceLocationID string) ([]*entity.TransferRequest, error) {
	pending, err := r.List(ctx, entity.TransferStatusPending)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.TransferRequest, 0, len(pending))
	for _, t := range pending {
		if t.SourceLocationID == sourceLocationID {
			out = append(out, t)
		}
	}
	return out, nil
}

// DemandRepo estadística de demanda sobre los pedidos cargados con SeedDemand.
type DemandRepo struct{ store *Store }

func (r *DemandRepo) SizeDemandStatistics(_ context.Context) ([]repository.SizeDemandResult, error) {
	r.store.mu.RLock()
	records := make([]entity.DemandRecord, len(r.store.state.demand))
	copy(records, r.store.state.demand)
	r.store.mu.RUnlock()

	bySize := make(map[int]*repository.SizeDemandResult)
	requesters := make(map[int]map[string]bool)
	for _, d := range records {
		res, ok := bySize[d.SizeClass]
		if !ok {
			res = &repository.SizeDemandResult{
				SizeClass:      d.SizeClass,
				TotalWeightKg:  decimal.Zero,
				FirstRequestAt: d.RequestedAt,
				LastRequestAt:  d.RequestedAt,
			}
			bySize[d.SizeClass] = res
			requesters[d.SizeClass] = map[string]bool{}
		}
		res.TotalWeightKg = res.TotalWeightKg.Add(d.RequestedWeightKg)
		res.OrderCount++
		requesters[d.SizeClass][d.RequesterID] = true
		if d.RequestedAt.Before(res.FirstRequestAt) {
			res.FirstRequestAt = d.RequestedAt
		}
		if d.RequestedAt.After(res.LastRequestAt) {
			res.LastRequestAt = d.RequestedAt
		}
	}
	out := make([]repository.SizeDemandResult, 0, len(bySize))
	for size, res := range bySize {
		res.RequesterCount = len(requesters[size])
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SizeClass < out[j].SizeClass })
	return out, nil
}
