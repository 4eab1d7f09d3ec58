package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/pkg/logger"
)

// RemovalInput baja de stock de una celda: descarte o despacho.
type RemovalInput struct {
	LocationID string
	SizeClass  int
	Quantity   int
	EntryType  string
	CreatedBy  string
}

// RemovalService descuenta stock de una celda en orden FIFO (lote más antiguo primero).
type RemovalService struct {
	txRunner TxRunner
	log      *logger.Logger
	metrics  Metrics
	now      Clock
}

// NewRemovalService construye el servicio de bajas.
func NewRemovalService(txRunner TxRunner, log *logger.Logger, m Metrics, now Clock) *RemovalService {
	if log == nil {
		log = logger.Nop()
	}
	return &RemovalService{txRunner: txRunner, log: log, metrics: orNoop(m), now: orNow(now)}
}

// RemoveStock agrega un asiento negativo por lote afectado con la misma regla de reparto de peso
// que los traslados.
func (s *RemovalService) RemoveStock(ctx context.Context, in RemovalInput) ([]*entity.LedgerEntry, error) {
	if in.EntryType != entity.EntryTypeDisposal && in.EntryType != entity.EntryTypeDispatch {
		return nil, domain.NewValidationError("entry_type", "debe ser disposal o dispatch")
	}
	if in.LocationID == "" {
		return nil, domain.NewValidationError("location_id", "es requerido")
	}
	if in.SizeClass <= 0 {
		return nil, domain.NewValidationError("size_class", "debe ser un entero positivo")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}

	var entries []*entity.LedgerEntry
	err := s.txRunner.Run(ctx, []string{in.LocationID}, func(repos Repos) error {
		loc, err := repos.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.ErrNotFound
		}
		shares, err := sharesOf(ctx, repos, in.LocationID, in.SizeClass)
		if err != nil {
			return err
		}
		allocs, ok := dominv.AllocateFIFO(shares, in.Quantity)
		if !ok {
			available := dominv.AvailableQuantity(shares)
			return &domain.InsufficientStockError{
				LocationID: in.LocationID,
				SizeClass:  in.SizeClass,
				Requested:  in.Quantity,
				Available:  available,
				Shortfall:  in.Quantity - available,
			}
		}
		now := s.now()
		entries = make([]*entity.LedgerEntry, 0, len(allocs))
		for _, a := range allocs {
			entries = append(entries, &entity.LedgerEntry{
				ID:         uuid.New().String(),
				BatchID:    a.BatchID,
				LocationID: in.LocationID,
				SizeClass:  in.SizeClass,
				Quantity:   -a.Quantity,
				WeightKg:   a.WeightKg.Neg(),
				Timestamp:  now,
				EntryType:  in.EntryType,
				CreatedBy:  in.CreatedBy,
			})
		}
		return appendChecked(ctx, repos, entries)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LedgerEntriesAppended(in.EntryType, len(entries))
	s.log.Info().
		Str("location_id", in.LocationID).
		Int("size_class", in.SizeClass).
		Int("quantity", in.Quantity).
		Str("entry_type", in.EntryType).
		Msg("baja de stock registrada")
	return entries, nil
}
