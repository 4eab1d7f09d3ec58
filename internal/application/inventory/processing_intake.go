package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// ProcessingItem piezas de una talla salidas de un registro de procesamiento.
type ProcessingItem struct {
	SizeClass int
	Quantity  int
	WeightKg  decimal.Decimal
}

// ProcessingInput alta de stock desde el módulo de procesamiento.
type ProcessingInput struct {
	ProcessingRecordID string
	BatchNumber        string
	LocationID         string
	Items              []ProcessingItem
	CreatedBy          string
}

// ProcessingIntake recibe lo que produce el procesamiento: un lote y un asiento addition por talla.
type ProcessingIntake struct {
	txRunner TxRunner
	log      *logger.Logger
	metrics  Metrics
	now      Clock
}

// NewProcessingIntake construye el servicio de ingreso.
func NewProcessingIntake(txRunner TxRunner, log *logger.Logger, m Metrics, now Clock) *ProcessingIntake {
	if log == nil {
		log = logger.Nop()
	}
	return &ProcessingIntake{txRunner: txRunner, log: log, metrics: orNoop(m), now: orNow(now)}
}

// AddStockFromProcessing crea el lote y sus entradas en una sola transacción. Un registro de
// procesamiento ya ingresado devuelve ErrDuplicate.
func (p *ProcessingIntake) AddStockFromProcessing(ctx context.Context, in ProcessingInput) (*entity.Batch, []*entity.LedgerEntry, error) {
	if err := validateProcessingInput(in); err != nil {
		return nil, nil, err
	}

	now := p.now()
	batch := &entity.Batch{
		ID:                       uuid.New().String(),
		BatchNumber:              in.BatchNumber,
		SourceProcessingRecordID: in.ProcessingRecordID,
		CreatedAt:                now,
	}
	entries := make([]*entity.LedgerEntry, 0, len(in.Items))
	for _, it := range in.Items {
		entries = append(entries, &entity.LedgerEntry{
			ID:         uuid.New().String(),
			BatchID:    batch.ID,
			LocationID: in.LocationID,
			SizeClass:  it.SizeClass,
			Quantity:   it.Quantity,
			WeightKg:   it.WeightKg,
			Timestamp:  now,
			EntryType:  entity.EntryTypeAddition,
			CreatedBy:  in.CreatedBy,
		})
	}

	err := p.txRunner.Run(ctx, []string{in.LocationID}, func(repos Repos) error {
		existing, err := repos.Batches.GetByProcessingRecord(ctx, in.ProcessingRecordID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		loc, err := repos.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
		if !loc.IsActive() {
			return domain.NewValidationError("location_id", "la ubicación no está activa")
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		return appendChecked(ctx, repos, entries)
	})
	if err != nil {
		p.log.Info().Err(err).
			Str("processing_record_id", in.ProcessingRecordID).
			Str("location_id", in.LocationID).
			Msg("ingreso de procesamiento rechazado")
		return nil, nil, err
	}

	p.metrics.LedgerEntriesAppended(entity.EntryTypeAddition, len(entries))
	p.log.Info().
		Str("batch_id", batch.ID).
		Str("batch_number", batch.BatchNumber).
		Str("location_id", in.LocationID).
		Int("entries", len(entries)).
		Msg("lote ingresado desde procesamiento")
	return batch, entries, nil
}

func validateProcessingInput(in ProcessingInput) error {
	if in.ProcessingRecordID == "" {
		return domain.NewValidationError("processing_record_id", "es requerido")
	}
	if in.BatchNumber == "" {
		return domain.NewValidationError("batch_number", "es requerido")
	}
	if in.LocationID == "" {
		return domain.NewValidationError("location_id", "es requerido")
	}
	if len(in.Items) == 0 {
		return domain.NewValidationError("items", "debe tener al menos un ítem")
	}
	seen := make(map[int]bool, len(in.Items))
	for _, it := range in.Items {
		if it.SizeClass <= 0 {
			return domain.NewValidationError("items.size_class", "debe ser un entero positivo")
		}
		if seen[it.SizeClass] {
			return domain.NewValidationError("items.size_class", "talla duplicada")
		}
		seen[it.SizeClass] = true
		if it.Quantity <= 0 {
			return domain.NewValidationError("items.quantity", "debe ser mayor que cero")
		}
		if !it.WeightKg.IsPositive() {
			return domain.NewValidationError("items.weight_kg", "debe ser mayor que cero")
		}
		if !it.WeightKg.Equal(dominv.RoundWeight(it.WeightKg)) {
			return domain.NewValidationError("items.weight_kg", "máximo un decimal")
		}
	}
	return nil
}
