package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	defaultRemovalLimit = 10
	maxRemovalLimit     = 100
)

// Aggregator deriva las vistas de inventario sumando el libro de lotes. Es la única autoridad de
// recálculo: no guarda estado entre llamadas.
type Aggregator struct {
	locations repository.StorageLocationRepository
	batches   repository.BatchRepository
	ledger    repository.LedgerRepository
	demand    repository.DemandRepository
	log       *logger.Logger
	metrics   Metrics
	now       Clock
}

// NewAggregator construye el agregador.
func NewAggregator(
	locations repository.StorageLocationRepository,
	batches repository.BatchRepository,
	ledger repository.LedgerRepository,
	demand repository.DemandRepository,
	log *logger.Logger,
	metrics Metrics,
	now Clock,
) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{
		locations: locations,
		batches:   batches,
		ledger:    ledger,
		demand:    demand,
		log:       log,
		metrics:   orNoop(metrics),
		now:       orNow(now),
	}
}

// BatchContribution aporte restante de un lote a una celda.
type BatchContribution struct {
	BatchID      string
	BatchNumber  string
	FirstAddedAt time.Time
	Quantity     int
	WeightKg     decimal.Decimal
}

// CellRow fila de inventario por (ubicación, talla) con sus lotes, del más antiguo al más reciente.
type CellRow struct {
	LocationID          string
	LocationName        string
	SizeClass           int
	Quantity            int
	WeightKg            decimal.Decimal
	ContributingBatches []BatchContribution
}

// CellPosition stock de un lote en una celda.
type CellPosition struct {
	LocationID   string
	LocationName string
	SizeClass    int
	Quantity     int
	WeightKg     decimal.Decimal
}

// RemovalCandidate lote con stock restante, candidato a retiro FIFO.
type RemovalCandidate struct {
	BatchID                  string
	BatchNumber              string
	SourceProcessingRecordID string
	FirstAddedAt             time.Time
	AgeDays                  int
	Quantity                 int
	WeightKg                 decimal.Decimal
	Cells                    []CellPosition
}

// InventoryByLocation una fila por celda no vacía, ordenada por nombre de ubicación y talla.
func (a *Aggregator) InventoryByLocation(ctx context.Context) ([]CellRow, error) {
	snap, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]CellRow, 0, len(snap.cells))
	for _, c := range snap.cells {
		row := CellRow{
			LocationID:          c.key.LocationID,
			LocationName:        snap.locationName(c.key.LocationID),
			SizeClass:           c.key.SizeClass,
			WeightKg:            decimal.Zero,
			ContributingBatches: make([]BatchContribution, 0, len(c.shares)),
		}
		for _, sh := range c.shares {
			row.Quantity += sh.Quantity
			row.WeightKg = row.WeightKg.Add(sh.WeightKg)
			row.ContributingBatches = append(row.ContributingBatches, BatchContribution{
				BatchID:      sh.BatchID,
				BatchNumber:  sh.BatchNumber,
				FirstAddedAt: sh.FirstAddedAt,
				Quantity:     sh.Quantity,
				WeightKg:     sh.WeightKg,
			})
		}
		if row.Quantity == 0 && row.WeightKg.IsZero() {
			continue
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LocationName != rows[j].LocationName {
			return rows[i].LocationName < rows[j].LocationName
		}
		if rows[i].LocationID != rows[j].LocationID {
			return rows[i].LocationID < rows[j].LocationID
		}
		return rows[i].SizeClass < rows[j].SizeClass
	})
	return rows, nil
}

// OldestBatchesForRemoval lotes con stock restante, del más antiguo al más reciente (primera entrada
// addition del lote); empate: número de lote menor. limit <= 0 usa el valor por defecto.
func (a *Aggregator) OldestBatchesForRemoval(ctx context.Context, limit int) ([]RemovalCandidate, error) {
	if limit <= 0 {
		limit = defaultRemovalLimit
	}
	if limit > maxRemovalLimit {
		limit = maxRemovalLimit
	}
	snap, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	byBatch := make(map[string]*RemovalCandidate)
	for _, c := range snap.cells {
		for _, sh := range c.shares {
			cand, ok := byBatch[sh.BatchID]
			if !ok {
				cand = &RemovalCandidate{BatchID: sh.BatchID, BatchNumber: sh.BatchNumber, WeightKg: decimal.Zero}
				if b := snap.batches[sh.BatchID]; b != nil {
					cand.SourceProcessingRecordID = b.SourceProcessingRecordID
					cand.FirstAddedAt = b.CreatedAt
				}
				if at, ok := snap.firstAddition[sh.BatchID]; ok {
					cand.FirstAddedAt = at
				}
				byBatch[sh.BatchID] = cand
			}
			cand.Quantity += sh.Quantity
			cand.WeightKg = cand.WeightKg.Add(sh.WeightKg)
			cand.Cells = append(cand.Cells, CellPosition{
				LocationID:   c.key.LocationID,
				LocationName: snap.locationName(c.key.LocationID),
				SizeClass:    c.key.SizeClass,
				Quantity:     sh.Quantity,
				WeightKg:     sh.WeightKg,
			})
		}
	}

	now := a.now()
	out := make([]RemovalCandidate, 0, len(byBatch))
	for _, cand := range byBatch {
		if cand.Quantity <= 0 {
			continue
		}
		cand.AgeDays = int(now.Sub(cand.FirstAddedAt).Hours() / 24)
		out = append(out, *cand)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FirstAddedAt.Equal(out[j].FirstAddedAt) {
			return out[i].FirstAddedAt.Before(out[j].FirstAddedAt)
		}
		if out[i].BatchNumber != out[j].BatchNumber {
			return out[i].BatchNumber < out[j].BatchNumber
		}
		return out[i].BatchID < out[j].BatchID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SizeDemandStatistics demanda histórica por talla, de mayor a menor peso pedido.
func (a *Aggregator) SizeDemandStatistics(ctx context.Context) ([]repository.SizeDemandResult, error) {
	stats, err := a.demand.SizeDemandStatistics(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if !stats[i].TotalWeightKg.Equal(stats[j].TotalWeightKg) {
			return stats[i].TotalWeightKg.GreaterThan(stats[j].TotalWeightKg)
		}
		return stats[i].SizeClass < stats[j].SizeClass
	})
	return stats, nil
}

type cellView struct {
	key    entity.CellKey
	shares []dominv.BatchShare
}

type ledgerSnapshot struct {
	cells         []cellView
	batches       map[string]*entity.Batch
	locations     map[string]*entity.StorageLocation
	firstAddition map[string]time.Time
}

func (s *ledgerSnapshot) locationName(id string) string {
	if loc := s.locations[id]; loc != nil {
		return loc.Name
	}
	return ""
}

// load lee el libro completo en una sola consulta (instantánea consistente) y lo pliega por celda.
func (a *Aggregator) load(ctx context.Context) (*ledgerSnapshot, error) {
	entries, err := a.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := a.locations.List(ctx)
	if err != nil {
		return nil, err
	}
	batches, err := batchIndex(ctx, a.batches, entries)
	if err != nil {
		return nil, err
	}

	snap := &ledgerSnapshot{
		batches:       batches,
		locations:     make(map[string]*entity.StorageLocation, len(locs)),
		firstAddition: make(map[string]time.Time),
	}
	for _, l := range locs {
		snap.locations[l.ID] = l
	}

	byCell := make(map[entity.CellKey][]entity.LedgerEntry)
	order := make([]entity.CellKey, 0)
	for _, e := range entries {
		k := entity.CellKey{LocationID: e.LocationID, SizeClass: e.SizeClass}
		if _, ok := byCell[k]; !ok {
			order = append(order, k)
		}
		byCell[k] = append(byCell[k], e)
		if e.EntryType == entity.EntryTypeAddition {
			if at, ok := snap.firstAddition[e.BatchID]; !ok || e.Timestamp.Before(at) {
				snap.firstAddition[e.BatchID] = e.Timestamp
			}
		}
	}

	for _, k := range order {
		shares, err := dominv.CellShares(byCell[k], batches)
		if err != nil {
			a.reportConsistency(err)
			return nil, err
		}
		snap.cells = append(snap.cells, cellView{key: k, shares: shares})
	}
	return snap, nil
}

// reportConsistency vía de alerta: log de error y contador. No se reintenta.
func (a *Aggregator) reportConsistency(err error) {
	var ce *domain.ConsistencyError
	if !errors.As(err, &ce) {
		return
	}
	a.metrics.ConsistencyViolation()
	a.log.Error().
		Str("location_id", ce.LocationID).
		Int("size_class", ce.SizeClass).
		Str("batch_id", ce.BatchID).
		Str("detail", ce.Detail).
		Msg("invariante de inventario violado")
}
