package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture núcleo completo sobre el driver en memoria con reloj controlable.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	now    time.Time
	ledger *inventory.LedgerService
	cap    *inventory.CapacityService
	agg    *inventory.Aggregator
	coord  *inventory.TransferCoordinator
	intake *inventory.ProcessingIntake
	remove *inventory.RemovalService
	facade *inventory.ReportingFacade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
		now:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	s := f.store
	f.ledger = inventory.NewLedgerService(s, s.Ledger(), nil, clock)
	f.cap = inventory.NewCapacityService(s.Locations(), s.Ledger())
	f.agg = inventory.NewAggregator(s.Locations(), s.Batches(), s.Ledger(), s.Demand(), nil, nil, clock)
	f.coord = inventory.NewTransferCoordinator(s, s.Transfers(), nil, nil, clock)
	f.intake = inventory.NewProcessingIntake(s, nil, nil, clock)
	f.remove = inventory.NewRemovalService(s, nil, nil, clock)
	f.facade = inventory.NewReportingFacade(f.agg, f.ledger)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) location(id, name, capacityKg string) {
	f.t.Helper()
	require.NoError(f.t, f.store.Locations().Create(f.ctx, &entity.StorageLocation{
		ID:         id,
		Name:       name,
		Type:       entity.LocationTypeColdStorage,
		CapacityKg: kg(capacityKg),
		Status:     entity.LocationStatusActive,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}))
}

// addBatch ingresa un lote con una sola talla.
func (f *fixture) addBatch(record, number, locationID string, sizeClass, qty int, weight string) *entity.Batch {
	f.t.Helper()
	b, _, err := f.intake.AddStockFromProcessing(f.ctx, inventory.ProcessingInput{
		ProcessingRecordID: record,
		BatchNumber:        number,
		LocationID:         locationID,
		Items:              []inventory.ProcessingItem{{SizeClass: sizeClass, Quantity: qty, WeightKg: kg(weight)}},
		CreatedBy:          "proc",
	})
	require.NoError(f.t, err)
	return b
}

func (f *fixture) ledgerCount() int {
	f.t.Helper()
	n, err := f.store.Ledger().Count(f.ctx)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) cell(locationID string, sizeClass int) (int, decimal.Decimal) {
	f.t.Helper()
	qty, w, err := f.ledger.SumByCell(f.ctx, locationID, sizeClass)
	require.NoError(f.t, err)
	return qty, w
}

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(size, qty int, weight string) entity.TransferItem {
	return entity.TransferItem{SizeClass: size, Quantity: qty, WeightKg: kg(weight)}
}
