package inventory

import (
	"context"
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	dominv "github.com/jhoicas/fishstock-api/internal/domain/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// LedgerService libro de lotes: única vía de escritura de asientos (append-only) y lecturas por
// celda, lote y ubicación.
type LedgerService struct {
	txRunner TxRunner
	ledger   repository.LedgerRepository
	metrics  Metrics
	now      Clock
}

// NewLedgerService construye el servicio del libro.
func NewLedgerService(txRunner TxRunner, ledger repository.LedgerRepository, metrics Metrics, now Clock) *LedgerService {
	return &LedgerService{txRunner: txRunner, ledger: ledger, metrics: orNoop(metrics), now: orNow(now)}
}

// Append valida y persiste un asiento. Bloquea la ubicación, verifica que lote y ubicación
// existan, que una salida no deje negativo el aporte del lote en la celda y que una entrada quepa
// en la ubicación.
func (s *LedgerService) Append(ctx context.Context, entry entity.LedgerEntry) (*entity.LedgerEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if err := dominv.ValidateEntry(&entry); err != nil {
		return nil, err
	}
	err := s.txRunner.Run(ctx, []string{entry.LocationID}, func(repos Repos) error {
		return appendChecked(ctx, repos, []*entity.LedgerEntry{&entry})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LedgerEntriesAppended(entry.EntryType, 1)
	return &entry, nil
}

// SumByCell stock actual (piezas, kg) de una celda.
func (s *LedgerService) SumByCell(ctx context.Context, locationID string, sizeClass int) (int, decimal.Decimal, error) {
	if sizeClass <= 0 {
		return 0, decimal.Zero, domain.NewValidationError("size_class", "debe ser un entero positivo")
	}
	return s.ledger.SumByCell(ctx, locationID, sizeClass)
}

// EntriesForBatch secuencia reiniciable de los asientos de un lote (instantánea al momento de la llamada).
func (s *LedgerService) EntriesForBatch(ctx context.Context, batchID string) (iter.Seq[entity.LedgerEntry], error) {
	list, err := s.ledger.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return slices.Values(list), nil
}

// EntriesForLocation secuencia reiniciable de los asientos de una ubicación.
func (s *LedgerService) EntriesForLocation(ctx context.Context, locationID string) (iter.Seq[entity.LedgerEntry], error) {
	list, err := s.ledger.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return slices.Values(list), nil
}

type batchCell struct {
	batchID string
	cell    entity.CellKey
}

// appendChecked es el único punto de escritura al libro. Debe ejecutarse dentro de txRunner.Run
// con las ubicaciones de entries bloqueadas.
func appendChecked(ctx context.Context, repos Repos, entries []*entity.LedgerEntry) error {
	locations := make(map[string]*entity.StorageLocation)
	checkedBatches := make(map[string]bool)
	outbound := make(map[batchCell]int)
	inboundKg := make(map[string]decimal.Decimal)
	cellOrder := make([]batchCell, 0)

	for _, e := range entries {
		if err := dominv.ValidateEntry(e); err != nil {
			return err
		}
		if _, ok := locations[e.LocationID]; !ok {
			loc, err := repos.Locations.GetByID(ctx, e.LocationID)
			if err != nil {
				return err
			}
			if loc == nil {
				return domain.NewValidationError("location_id", "la ubicación no existe: "+e.LocationID)
			}
			locations[e.LocationID] = loc
		}
		if !checkedBatches[e.BatchID] {
			b, err := repos.Batches.GetByID(ctx, e.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return domain.NewValidationError("batch_id", "el lote no existe: "+e.BatchID)
			}
			checkedBatches[e.BatchID] = true
		}
		if entity.IsInbound(e.EntryType) {
			inboundKg[e.LocationID] = inboundKg[e.LocationID].Add(e.WeightKg)
			continue
		}
		k := batchCell{batchID: e.BatchID, cell: entity.CellKey{LocationID: e.LocationID, SizeClass: e.SizeClass}}
		if _, ok := outbound[k]; !ok {
			cellOrder = append(cellOrder, k)
		}
		outbound[k] += -e.Quantity
	}

	// Una salida nunca puede dejar negativo el aporte de un lote en la celda.
	for _, k := range cellOrder {
		cellEntries, err := repos.Ledger.ListByCell(ctx, k.cell.LocationID, k.cell.SizeClass)
		if err != nil {
			return err
		}
		shares, err := dominv.CellShares(cellEntries, nil)
		if err != nil {
			return err
		}
		available := 0
		for _, sh := range shares {
			if sh.BatchID == k.batchID {
				available = sh.Quantity
			}
		}
		if requested := outbound[k]; requested > available {
			return &domain.InsufficientStockError{
				LocationID: k.cell.LocationID,
				SizeClass:  k.cell.SizeClass,
				Requested:  requested,
				Available:  available,
				Shortfall:  requested - available,
			}
		}
	}

	// Ninguna entrada puede llevar el uso por encima de la capacidad.
	for locationID, kg := range inboundKg {
		usage, err := usageOf(ctx, repos.Ledger, locationID)
		if err != nil {
			return err
		}
		if err := dominv.CheckCapacity(locations[locationID], usage, kg); err != nil {
			return err
		}
	}

	return repos.Ledger.Append(ctx, entries...)
}

// usageOf recalcula el uso de una ubicación desde el libro.
func usageOf(ctx context.Context, ledger repository.LedgerRepository, locationID string) (decimal.Decimal, error) {
	entries, err := ledger.ListByLocation(ctx, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return dominv.Usage(entries), nil
}

// sharesOf aportes vigentes por lote de una celda, del más antiguo al más reciente.
func sharesOf(ctx context.Context, repos Repos, locationID string, sizeClass int) ([]dominv.BatchShare, error) {
	entries, err := repos.Ledger.ListByCell(ctx, locationID, sizeClass)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	batches, err := batchIndex(ctx, repos.Batches, entries)
	if err != nil {
		return nil, err
	}
	return dominv.CellShares(entries, batches)
}

func batchIndex(ctx context.Context, batches repository.BatchRepository, entries []entity.LedgerEntry) (map[string]*entity.Batch, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, e := range entries {
		if !seen[e.BatchID] {
			seen[e.BatchID] = true
			ids = append(ids, e.BatchID)
		}
	}
	list, err := batches.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*entity.Batch, len(list))
	for _, b := range list {
		index[b.ID] = b
	}
	return index, nil
}
