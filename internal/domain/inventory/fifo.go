package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BatchShare aporte restante de un lote a una celda (ubicación, talla).
type BatchShare struct {
	BatchID        string
	BatchNumber    string
	BatchCreatedAt time.Time
	FirstAddedAt   time.Time
	Quantity       int
	WeightKg       decimal.Decimal
}

// Allocation porción de un lote tomada por una salida FIFO.
type Allocation struct {
	BatchID  string
	Quantity int
	WeightKg decimal.Decimal
}

// RoundWeight normaliza un peso a un decimal (kg).
func RoundWeight(w decimal.Decimal) decimal.Decimal {
	return w.Round(1)
}

// CellShares pliega los asientos de una celda por lote y devuelve los aportes no nulos,
// del más antiguo al más reciente (ver SortOldestFirst).
// batches puede ser nil; solo se usa para desempatar y rotular.
// Un aporte negativo es una violación de invariante y se devuelve como ConsistencyError.
func CellShares(entries []entity.LedgerEntry, batches map[string]*entity.Batch) ([]BatchShare, error) {
	byBatch := make(map[string]*BatchShare)
	order := make([]string, 0)
	for _, e := range entries {
		s, ok := byBatch[e.BatchID]
		if !ok {
			s = &BatchShare{BatchID: e.BatchID, WeightKg: decimal.Zero}
			if b := batches[e.BatchID]; b != nil {
				s.BatchNumber = b.BatchNumber
				s.BatchCreatedAt = b.CreatedAt
			}
			byBatch[e.BatchID] = s
			order = append(order, e.BatchID)
		}
		s.Quantity += e.Quantity
		s.WeightKg = s.WeightKg.Add(e.WeightKg)
		if entity.IsInbound(e.EntryType) && (s.FirstAddedAt.IsZero() || e.Timestamp.Before(s.FirstAddedAt)) {
			s.FirstAddedAt = e.Timestamp
		}
	}

	shares := make([]BatchShare, 0, len(order))
	for _, id := range order {
		s := byBatch[id]
		if s.Quantity < 0 || s.WeightKg.IsNegative() {
			first := entries[0]
			return nil, &domain.ConsistencyError{
				LocationID: first.LocationID,
				SizeClass:  first.SizeClass,
				BatchID:    id,
				Detail:     "aporte de lote negativo: " + s.WeightKg.StringFixed(1) + " kg",
			}
		}
		if s.Quantity == 0 && s.WeightKg.IsZero() {
			continue
		}
		shares = append(shares, *s)
	}
	SortOldestFirst(shares)
	return shares, nil
}

// SortOldestFirst ordena aportes por primera entrada a la celda ascendente. Empates (p. ej. lotes
// llegados en el mismo traslado): creación del lote, luego número de lote menor.
func SortOldestFirst(shares []BatchShare) {
	sort.SliceStable(shares, func(i, j int) bool {
		if !shares[i].FirstAddedAt.Equal(shares[j].FirstAddedAt) {
			return shares[i].FirstAddedAt.Before(shares[j].FirstAddedAt)
		}
		if !shares[i].BatchCreatedAt.Equal(shares[j].BatchCreatedAt) {
			return shares[i].BatchCreatedAt.Before(shares[j].BatchCreatedAt)
		}
		if shares[i].BatchNumber != shares[j].BatchNumber {
			return shares[i].BatchNumber < shares[j].BatchNumber
		}
		return shares[i].BatchID < shares[j].BatchID
	})
}

// AvailableQuantity suma las piezas de los aportes.
func AvailableQuantity(shares []BatchShare) int {
	total := 0
	for _, s := range shares {
		total += s.Quantity
	}
	return total
}

// AllocateFIFO reparte quantity piezas consumiendo primero el lote más antiguo.
// Si se toma todo lo que queda de un lote se mueve todo su peso; si no, el peso es proporcional
// a las piezas tomadas, redondeado a 0,1 kg. Devuelve false si no alcanza el stock.
func AllocateFIFO(shares []BatchShare, quantity int) ([]Allocation, bool) {
	if quantity <= 0 || AvailableQuantity(shares) < quantity {
		return nil, false
	}
	remaining := quantity
	allocs := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		if remaining == 0 {
			break
		}
		if s.Quantity <= 0 {
			continue
		}
		take := s.Quantity
		if take > remaining {
			take = remaining
		}
		weight := s.WeightKg
		if take < s.Quantity {
			weight = RoundWeight(s.WeightKg.Mul(decimal.NewFromInt(int64(take))).Div(decimal.NewFromInt(int64(s.Quantity))))
		}
		allocs = append(allocs, Allocation{BatchID: s.BatchID, Quantity: take, WeightKg: weight})
		remaining -= take
	}
	return allocs, true
}

// AllocatedWeight suma el peso de un reparto.
func AllocatedWeight(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.WeightKg)
	}
	return total
}
