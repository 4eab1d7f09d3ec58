// Package memory implementa los puertos de persistencia en memoria. Cada transacción trabaja
// sobre un overlay que se aplica al estado confirmado en el commit; los lectores solo ven
// estado confirmado.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	locations     map[string]entity.StorageLocation
	batches       map[string]entity.Batch
	batchByRecord map[string]string
	ledger        []entity.LedgerEntry
	transfers     map[string]entity.TransferRequest
	demand        []entity.DemandRecord
}

// overlay cambios pendientes de una transacción.
type overlay struct {
	locations map[string]entity.StorageLocation
	batches   []entity.Batch
	ledger    []entity.LedgerEntry
	transfers map[string]entity.TransferRequest
	created   map[string]bool
}

func newOverlay() *overlay {
	return &overlay{
		locations: map[string]entity.StorageLocation{},
		transfers: map[string]entity.TransferRequest{},
		created:   map[string]bool{},
	}
}

// Store almacén en memoria; seguro para uso concurrente.
type Store struct {
	mu    sync.RWMutex
	state state
	locks *keyedMutex
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		state: state{
			locations:     map[string]entity.StorageLocation{},
			batches:       map[string]entity.Batch{},
			batchByRecord: map[string]string{},
			transfers:     map[string]entity.TransferRequest{},
		},
		locks: newKeyedMutex(),
	}
}

// Run ejecuta fn con exclusión mutua sobre las ubicaciones indicadas. Los cambios se acumulan en un
// overlay y se aplican de una vez si fn devuelve nil.
func (s *Store) Run(ctx context.Context, lockLocationIDs []string, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lock(lockLocationIDs)
	defer unlock()

	v := &view{store: s, ov: newOverlay()}
	if err := fn(v.repos()); err != nil {
		return err
	}
	return s.commit(v.ov)
}

// Repos repositorios sin transacción: lecturas sobre estado confirmado y escrituras con commit inmediato.
func (s *Store) Repos() inventory.Repos {
	return (&view{store: s, autocommit: true}).repos()
}

// Locations repositorio de ubicaciones sin transacción.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{v: &view{store: s, autocommit: true}} }

// Batches repositorio de lotes sin transacción.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{v: &view{store: s, autocommit: true}} }

// Ledger repositorio del libro sin transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{v: &view{store: s, autocommit: true}} }

// Transfers repositorio de traslados sin transacción.
func (s *Store) Transfers() *TransferRepo { return &TransferRepo{v: &view{store: s, autocommit: true}} }

// Demand repositorio de demanda histórica.
func (s *Store) Demand() *DemandRepo { return &DemandRepo{store: s} }

// SeedDemand carga pedidos históricos (los escribe otro módulo; aquí solo para pruebas y demo).
func (s *Store) SeedDemand(records ...entity.DemandRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.demand = append(s.state.demand, records...)
}

func (s *Store) commit(ov *overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range ov.batches {
		if _, ok := s.state.batches[b.ID]; ok {
			return fmt.Errorf("insert batch %s: %w", b.ID, domain.ErrDuplicate)
		}
		if _, ok := s.state.batchByRecord[b.SourceProcessingRecordID]; ok {
			return domain.ErrDuplicate
		}
	}
	for id := range ov.created {
		if _, ok := s.state.transfers[id]; ok {
			return fmt.Errorf("insert transfer %s: %w", id, domain.ErrDuplicate)
		}
	}

	for id, l := range ov.locations {
		s.state.locations[id] = l
	}
	for _, b := range ov.batches {
		s.state.batches[b.ID] = b
		s.state.batchByRecord[b.SourceProcessingRecordID] = b.ID
	}
	s.state.ledger = append(s.state.ledger, ov.ledger...)
	for id, t := range ov.transfers {
		s.state.transfers[id] = cloneTransfer(t)
	}
	return nil
}

// view lectura del estado confirmado más el overlay propio.
type view struct {
	store      *Store
	ov         *overlay
	autocommit bool
}

func (v *view) repos() inventory.Repos {
	return inventory.Repos{
		Locations: &LocationRepo{v: v},
		Batches:   &BatchRepo{v: v},
		Ledger:    &LedgerRepo{v: v},
		Transfers: &TransferRepo{v: v},
	}
}

// write aplica mutate sobre el overlay de la transacción o, sin transacción, sobre uno nuevo que se
// confirma enseguida.
func (v *view) write(mutate func(ov *overlay) error) error {
	if !v.autocommit {
		return mutate(v.ov)
	}
	ov := newOverlay()
	if err := mutate(ov); err != nil {
		return err
	}
	return v.store.commit(ov)
}

func (v *view) location(id string) (entity.StorageLocation, bool) {
	if v.ov != nil {
		if l, ok := v.ov.locations[id]; ok {
			return l, true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	l, ok := v.store.state.locations[id]
	return l, ok
}

func (v *view) allLocations() []entity.StorageLocation {
	v.store.mu.RLock()
	merged := make(map[string]entity.StorageLocation, len(v.store.state.locations))
	for id, l := range v.store.state.locations {
		merged[id] = l
	}
	v.store.mu.RUnlock()
	if v.ov != nil {
		for id, l := range v.ov.locations {
			merged[id] = l
		}
	}
	out := make([]entity.StorageLocation, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	return out
}

func (v *view) batch(id string) (entity.Batch, bool) {
	if v.ov != nil {
		for _, b := range v.ov.batches {
			if b.ID == id {
				return b, true
			}
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	b, ok := v.store.state.batches[id]
	return b, ok
}

func (v *view) batchByRecord(recordID string) (entity.Batch, bool) {
	if v.ov != nil {
		for _, b := range v.ov.batches {
			if b.SourceProcessingRecordID == recordID {
				return b, true
			}
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	id, ok := v.store.state.batchByRecord[recordID]
	if !ok {
		return entity.Batch{}, false
	}
	return v.store.state.batches[id], true
}

// entries copia del libro confirmado más los asientos pendientes, ordenada por timestamp e ID.
func (v *view) entries(keep func(e entity.LedgerEntry) bool) []entity.LedgerEntry {
	v.store.mu.RLock()
	out := make([]entity.LedgerEntry, 0, len(v.store.state.ledger))
	for _, e := range v.store.state.ledger {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	v.store.mu.RUnlock()
	if v.ov != nil {
		for _, e := range v.ov.ledger {
			if keep == nil || keep(e) {
				out = append(out, e)
			}
		}
	}
	sortEntries(out)
	return out
}

func (v *view) transfer(id string) (entity.TransferRequest, bool) {
	if v.ov != nil {
		if t, ok := v.ov.transfers[id]; ok {
			return cloneTransfer(t), true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	t, ok := v.store.state.transfers[id]
	if !ok {
		return entity.TransferRequest{}, false
	}
	return cloneTransfer(t), true
}

func (v *view) allTransfers() []entity.TransferRequest {
	v.store.mu.RLock()
	merged := make(map[string]entity.TransferRequest, len(v.store.state.transfers))
	for id, t := range v.store.state.transfers {
		merged[id] = t
	}
	v.store.mu.RUnlock()
	if v.ov != nil {
		for id, t := range v.ov.transfers {
			merged[id] = t
		}
	}
	out := make([]entity.TransferRequest, 0, len(merged))
	for _, t := range merged {
		out = append(out, cloneTransfer(t))
	}
	return out
}

func sortEntries(entries []entity.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].ID < entries[j].ID
	})
}

func cloneTransfer(t entity.TransferRequest) entity.TransferRequest {
	t.Items = slices.Clone(t.Items)
	if t.DecidedAt != nil {
		at := *t.DecidedAt
		t.DecidedAt = &at
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
