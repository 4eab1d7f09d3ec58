package inventory

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

// ReportingFacade proyecciones de solo lectura hacia DTOs. Sin estado; seguro para uso concurrente.
type ReportingFacade struct {
	aggregator *Aggregator
	ledger     *LedgerService
}

// NewReportingFacade construye la fachada de consultas.
func NewReportingFacade(aggregator *Aggregator, ledger *LedgerService) *ReportingFacade {
	return &ReportingFacade{aggregator: aggregator, ledger: ledger}
}

// InventoryByLocation celdas no vacías con sus lotes.
func (f *ReportingFacade) InventoryByLocation(ctx context.Context) ([]dto.InventoryByLocationRow, error) {
	rows, err := f.aggregator.InventoryByLocation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryByLocationRow, 0, len(rows))
	for _, r := range rows {
		batches := make([]dto.BatchContributionDTO, 0, len(r.ContributingBatches))
		for _, b := range r.ContributingBatches {
			batches = append(batches, dto.BatchContributionDTO{
				BatchID:      b.BatchID,
				BatchNumber:  b.BatchNumber,
				FirstAddedAt: b.FirstAddedAt,
				Quantity:     b.Quantity,
				WeightKg:     dto.KgOf(b.WeightKg),
			})
		}
		out = append(out, dto.InventoryByLocationRow{
			LocationID:          r.LocationID,
			LocationName:        r.LocationName,
			SizeClass:           r.SizeClass,
			Quantity:            r.Quantity,
			WeightKg:            dto.KgOf(r.WeightKg),
			ContributingBatches: batches,
		})
	}
	return out, nil
}

// OldestBatchesForRemoval candidatos a retiro, del más antiguo al más reciente.
func (f *ReportingFacade) OldestBatchesForRemoval(ctx context.Context, limit int) ([]dto.OldestBatchDTO, error) {
	cands, err := f.aggregator.OldestBatchesForRemoval(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OldestBatchDTO, 0, len(cands))
	for _, c := range cands {
		cells := make([]dto.BatchCellDTO, 0, len(c.Cells))
		for _, p := range c.Cells {
			cells = append(cells, dto.BatchCellDTO{
				LocationID:   p.LocationID,
				LocationName: p.LocationName,
				SizeClass:    p.SizeClass,
				Quantity:     p.Quantity,
				WeightKg:     dto.KgOf(p.WeightKg),
			})
		}
		out = append(out, dto.OldestBatchDTO{
			BatchID:            c.BatchID,
			BatchNumber:        c.BatchNumber,
			ProcessingRecordID: c.SourceProcessingRecordID,
			FirstAddedAt:       c.FirstAddedAt,
			AgeDays:            c.AgeDays,
			Quantity:           c.Quantity,
			WeightKg:           dto.KgOf(c.WeightKg),
			Cells:              cells,
		})
	}
	return out, nil
}

// SizeDemandStatistics demanda histórica por talla.
func (f *ReportingFacade) SizeDemandStatistics(ctx context.Context) ([]dto.SizeDemandDTO, error) {
	stats, err := f.aggregator.SizeDemandStatistics(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SizeDemandDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, dto.SizeDemandDTO{
			SizeClass:      s.SizeClass,
			TotalWeightKg:  dto.KgOf(s.TotalWeightKg),
			RequesterCount: s.RequesterCount,
			OrderCount:     s.OrderCount,
			FirstRequestAt: s.FirstRequestAt,
			LastRequestAt:  s.LastRequestAt,
		})
	}
	return out, nil
}

// CellStock stock de una celda.
func (f *ReportingFacade) CellStock(ctx context.Context, locationID string, sizeClass int) (*dto.CellStockResponse, error) {
	qty, weight, err := f.ledger.SumByCell(ctx, locationID, sizeClass)
	if err != nil {
		return nil, err
	}
	return &dto.CellStockResponse{
		LocationID: locationID,
		SizeClass:  sizeClass,
		Quantity:   qty,
		WeightKg:   dto.KgOf(weight),
	}, nil
}

// ToTransferResponse proyecta una solicitud de traslado.
func ToTransferResponse(t *entity.TransferRequest) dto.TransferResponse {
	items := make([]dto.TransferItemDTO, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemDTO{SizeClass: it.SizeClass, Quantity: it.Quantity, WeightKg: dto.KgOf(it.WeightKg)})
	}
	return dto.TransferResponse{
		ID:             t.ID,
		Source:         t.SourceLocationID,
		Destination:    t.DestinationLocationID,
		Items:          items,
		TotalWeightKg:  dto.KgOf(t.TotalWeight()),
		Status:         t.Status,
		RequestedBy:    t.RequestedBy,
		ApprovedBy:     t.ApprovedBy,
		Notes:          t.Notes,
		DecisionReason: t.DecisionReason,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		DecidedAt:      t.DecidedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// ToLedgerEntryResponses proyecta asientos del libro.
func ToLedgerEntryResponses(entries []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:         e.ID,
			BatchID:    e.BatchID,
			LocationID: e.LocationID,
			SizeClass:  e.SizeClass,
			Quantity:   e.Quantity,
			WeightKg:   dto.KgOf(e.WeightKg),
			EntryType:  e.EntryType,
			TransferID: e.TransferID,
			CreatedBy:  e.CreatedBy,
			Timestamp:  e.Timestamp,
		})
	}
	return out
}
