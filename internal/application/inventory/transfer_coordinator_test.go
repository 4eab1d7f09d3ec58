package inventory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferInput(items ...entity.TransferItem) inventory.CreateTransferInput {
	return inventory.CreateTransferInput{
		SourceLocationID:      "A",
		DestinationLocationID: "B",
		Items:                 items,
		RequestedBy:           "u-1",
	}
}

// Escenario de reparto: X (10 piezas, 5,0 kg) y luego Y (8 piezas, 4,0 kg) en A talla 3;
// se trasladan 12 piezas a B.
func TestApprove_RepartoFIFOEntreDosLotes(t *testing.T) {
	f := newFixture(t)
	f.location("A", "Cámara A", "100")
	f.location("B", "Cámara B", "100")
	x := f.addBatch("P-1", "X", "A", 3, 10, "5.0")
	f.advance(time.Hour)
	y := f.addBatch("P-2", "Y", "A", 3, 8, "4.0")
	f.advance(time.Hour)

	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 12, "6.0")))
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, tr.Status)

	before := f.ledgerCount()
	f.advance(time.Minute)
	done, err := f.coord.Approve(f.ctx, tr.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, done.Status)
	assert.Equal(t, "admin-1", done.ApprovedBy)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, before+4, f.ledgerCount())

	qa, wa := f.cell("A", 3)
	assert.Equal(t, 6, qa)
	assert.True(t, wa.Equal(kg("3.0")), wa.String())
	qb, wb := f.cell("B", 3)
	assert.Equal(t, 12, qb)
	assert.True(t, wb.Equal(kg("6.0")), wb.String())

	rows, err := f.agg.InventoryByLocation(f.ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cámara B", rows[1].LocationName)
	require.Len(t, rows[1].ContributingBatches, 2)
	assert.Equal(t, x.ID, rows[1].ContributingBatches[0].BatchID)
	assert.Equal(t, 10, rows[1].ContributingBatches[0].Quantity)
	assert.Equal(t, y.ID, rows[1].ContributingBatches[1].BatchID)
	assert.Equal(t, 2, rows[1].ContributingBatches[1].Quantity)
	assert.True(t, rows[1].ContributingBatches[1].WeightKg.Equal(kg("1.0")))

	// cada transfer_out tiene su transfer_in con el mismo lote
	entries, err := f.store.Ledger().ListAll(f.ctx)
	require.NoError(t, err)
	out := map[string]int{}
	in := map[string]int{}
	for _, e := range entries {
		if e.TransferID != tr.ID {
			continue
		}
		switch e.EntryType {
		case entity.EntryTypeTransferOut:
			out[e.BatchID] -= e.Quantity
		case entity.EntryTypeTransferIn:
			in[e.BatchID] += e.Quantity
		}
	}
	assert.Equal(t, out, in)
	assert.Equal(t, map[string]int{x.ID: 10, y.ID: 2}, in)

	oldest, err := f.agg.OldestBatchesForRemoval(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, "X", oldest[0].BatchNumber)
	assert.Equal(t, 10, oldest[0].Quantity)
	assert.Equal(t, "Y", oldest[1].BatchNumber)
	assert.Equal(t, 6+2, oldest[1].Quantity)
}

func TestCreateTransfer_CapacidadInsuficienteConFaltante(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.addBatch("P-1", "L-1", "A", 3, 90, "45.0")
	f.addBatch("P-2", "L-2", "B", 5, 60, "60.0")

	_, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 90, "45.0")))
	var capErr *domain.InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "B", capErr.LocationID)
	assert.True(t, capErr.ShortfallKg.Equal(kg("5.0")), capErr.ShortfallKg.String())
	assert.True(t, capErr.AvailableKg.Equal(kg("40.0")))

	list, err := f.coord.List(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTransfer_OrdenDeValidaciones(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.location("M", "M", "100")
	require.NoError(t, f.store.Locations().UpdateStatus(f.ctx, "M", entity.LocationStatusMaintenance))
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")

	cases := []struct {
		name  string
		in    inventory.CreateTransferInput
		check func(t *testing.T, err error)
	}{
		{
			name: "origen igual a destino",
			in:   inventory.CreateTransferInput{SourceLocationID: "A", DestinationLocationID: "A", Items: []entity.TransferItem{item(3, 1, "0.5")}, RequestedBy: "u"},
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "destination", ve.Field)
			},
		},
		{
			name:  "sin ítems",
			in:    transferInput(),
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrInvalidInput) },
		},
		{
			name:  "talla repetida",
			in:    transferInput(item(3, 1, "0.5"), item(3, 1, "0.5")),
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrInvalidInput) },
		},
		{
			name:  "cantidad no positiva",
			in:    transferInput(item(3, 0, "0.5")),
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrInvalidInput) },
		},
		{
			name: "destino inexistente",
			in:   inventory.CreateTransferInput{SourceLocationID: "A", DestinationLocationID: "Z", Items: []entity.TransferItem{item(3, 1, "0.5")}, RequestedBy: "u"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			},
		},
		{
			name: "destino en mantenimiento",
			in:   inventory.CreateTransferInput{SourceLocationID: "A", DestinationLocationID: "M", Items: []entity.TransferItem{item(3, 1, "0.5")}, RequestedBy: "u"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			},
		},
		{
			name: "stock insuficiente",
			in:   transferInput(item(3, 15, "7.5")),
			check: func(t *testing.T, err error) {
				var se *domain.InsufficientStockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, 10, se.Available)
				assert.Equal(t, 5, se.Shortfall)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coord.CreateTransfer(f.ctx, tc.in)
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestCreateTransfer_RechazaPendienteSolapado(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.location("C", "C", "100")
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")
	f.addBatch("P-2", "L-2", "A", 4, 10, "5.0")

	first, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 2, "1.0")))
	require.NoError(t, err)

	// otra talla del mismo origen no se solapa
	_, err = f.coord.CreateTransfer(f.ctx, transferInput(item(4, 2, "1.0")))
	require.NoError(t, err)

	in := transferInput(item(3, 1, "0.5"))
	in.DestinationLocationID = "C"
	_, err = f.coord.CreateTransfer(f.ctx, in)
	var dup *domain.DuplicatePendingTransferError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingTransferID)
	assert.Equal(t, []int{3}, dup.SizeClasses)

	// una vez resuelto el primero se puede volver a pedir
	_, err = f.coord.Reject(f.ctx, first.ID, "sin camión", "admin-1")
	require.NoError(t, err)
	_, err = f.coord.CreateTransfer(f.ctx, in)
	require.NoError(t, err)
}

func TestCreateTransfer_ConcurrentesSoloUnoQuedaPendiente(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 1, "0.5")))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrDuplicatePendingTrans):
				dups++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, dups)
}

// Dos traslados pendientes desde orígenes distintos hacia B, que solo tiene sitio para uno:
// aprobados a la vez, uno se completa y el otro queda rechazado por capacidad.
func TestApprove_ConcurrentesHaciaElMismoDestinoRespetanCapacidad(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		f.location("A1", "A1", "100")
		f.location("A2", "A2", "100")
		f.location("B", "B", "10")
		f.addBatch("P-1", "L-1", "A1", 3, 10, "8.0")
		f.addBatch("P-2", "L-2", "A2", 3, 10, "8.0")

		var ids []string
		for _, src := range []string{"A1", "A2"} {
			tr, err := f.coord.CreateTransfer(f.ctx, inventory.CreateTransferInput{
				SourceLocationID:      src,
				DestinationLocationID: "B",
				Items:                 []entity.TransferItem{item(3, 10, "8.0")},
				RequestedBy:           "u-1",
			})
			require.NoError(t, err)
			ids = append(ids, tr.ID)
		}

		var wg sync.WaitGroup
		results := make([]*entity.TransferRequest, len(ids))
		errs := make([]error, len(ids))
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = f.coord.Approve(f.ctx, id, "admin-1")
			}()
		}
		wg.Wait()

		completed, rejected := 0, 0
		for i := range ids {
			require.NotNil(t, results[i])
			switch results[i].Status {
			case entity.TransferStatusCompleted:
				assert.NoError(t, errs[i])
				completed++
			case entity.TransferStatusRejected:
				assert.ErrorIs(t, errs[i], domain.ErrInsufficientCapacity)
				rejected++
			}
		}
		assert.Equal(t, 1, completed, "ronda %d", round)
		assert.Equal(t, 1, rejected, "ronda %d", round)

		usage, err := f.cap.CurrentUsage(f.ctx, "B")
		require.NoError(t, err)
		assert.True(t, usage.LessThanOrEqual(kg("10")), "ronda %d: uso %s", round, usage)
		qb, _ := f.cell("B", 3)
		assert.Equal(t, 10, qb)
	}
}

func TestCreateTransfer_ConservaElOrdenDeLosItems(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	for i, size := range []int{5, 2, 7} {
		f.addBatch(fmt.Sprintf("P-%d", i), fmt.Sprintf("L-%d", i), "A", size, 4, "2.0")
	}

	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(5, 1, "0.5"), item(2, 1, "0.5"), item(7, 1, "0.5")))
	require.NoError(t, err)

	stored, err := f.coord.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	var sizes []int
	for _, it := range stored.Items {
		sizes = append(sizes, it.SizeClass)
	}
	assert.Equal(t, []int{5, 2, 7}, sizes)
}

func TestApprove_RevalidacionFallidaNoTocaElLibro(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")

	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 8, "4.0")))
	require.NoError(t, err)

	// el stock se va antes de aprobar
	_, err = f.remove.RemoveStock(f.ctx, inventory.RemovalInput{
		LocationID: "A", SizeClass: 3, Quantity: 5, EntryType: entity.EntryTypeDispatch, CreatedBy: "u",
	})
	require.NoError(t, err)

	before := f.ledgerCount()
	rejected, err := f.coord.Approve(f.ctx, tr.ID, "admin-1")
	var se *domain.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Shortfall)
	require.NotNil(t, rejected)
	assert.Equal(t, entity.TransferStatusRejected, rejected.Status)
	assert.NotEmpty(t, rejected.DecisionReason)
	assert.Equal(t, before, f.ledgerCount())

	stored, err := f.coord.Get(f.ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, stored.Status)
	qb, _ := f.cell("B", 3)
	assert.Zero(t, qb)
}

func TestApprove_RevalidaCapacidadDelDestino(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "20")
	f.addBatch("P-1", "L-1", "A", 3, 10, "10.0")

	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 10, "10.0")))
	require.NoError(t, err)
	f.addBatch("P-2", "L-2", "B", 5, 10, "15.0")

	before := f.ledgerCount()
	rejected, err := f.coord.Approve(f.ctx, tr.ID, "admin-1")
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Equal(t, entity.TransferStatusRejected, rejected.Status)
	assert.Equal(t, before, f.ledgerCount())
}

func TestApproveYReject_SoloDesdePending(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")

	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 2, "1.0")))
	require.NoError(t, err)
	_, err = f.coord.Approve(f.ctx, tr.ID, "admin-1")
	require.NoError(t, err)

	before := f.ledgerCount()
	_, err = f.coord.Approve(f.ctx, tr.ID, "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.coord.Reject(f.ctx, tr.ID, "tarde", "admin-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, before, f.ledgerCount())

	_, err = f.coord.Approve(f.ctx, "no-existe", "admin-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReject_NoModificaElLibro(t *testing.T) {
	f := newFixture(t)
	f.location("A", "A", "100")
	f.location("B", "B", "100")
	f.addBatch("P-1", "L-1", "A", 3, 10, "5.0")
	tr, err := f.coord.CreateTransfer(f.ctx, transferInput(item(3, 2, "1.0")))
	require.NoError(t, err)

	before := f.ledgerCount()
	got, err := f.coord.Reject(f.ctx, tr.ID, "sin camión", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, got.Status)
	assert.Equal(t, "sin camión", got.DecisionReason)
	require.NotNil(t, got.DecidedAt)
	assert.Equal(t, before, f.ledgerCount())

	pending, err := f.coord.List(f.ctx, entity.TransferStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	_, err = f.coord.List(f.ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
