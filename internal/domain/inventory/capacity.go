package inventory

import (
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type contributionKey struct {
	batchID   string
	sizeClass int
}

// Usage peso vivo de una ubicación: suma de los aportes netos positivos (lote, talla)
// de sus asientos. Siempre se recalcula; no hay contador independiente.
func Usage(entries []entity.LedgerEntry) decimal.Decimal {
	net := make(map[contributionKey]decimal.Decimal)
	for _, e := range entries {
		k := contributionKey{batchID: e.BatchID, sizeClass: e.SizeClass}
		net[k] = net[k].Add(e.WeightKg)
	}
	total := decimal.Zero
	for _, w := range net {
		if w.IsPositive() {
			total = total.Add(w)
		}
	}
	return total
}

// Available capacidad libre; puede ser <= 0 y no es un error.
func Available(capacityKg, usageKg decimal.Decimal) decimal.Decimal {
	return capacityKg.Sub(usageKg)
}

// UtilizationPct porcentaje de uso con un decimal.
func UtilizationPct(capacityKg, usageKg decimal.Decimal) decimal.Decimal {
	if !capacityKg.IsPositive() {
		return decimal.Zero
	}
	return usageKg.Div(capacityKg).Mul(decimal.NewFromInt(100)).Round(1)
}

// CheckCapacity devuelve InsufficientCapacityError si requiredKg no cabe en la ubicación.
func CheckCapacity(location *entity.StorageLocation, usageKg, requiredKg decimal.Decimal) error {
	available := Available(location.CapacityKg, usageKg)
	if available.LessThan(requiredKg) {
		shortfall := requiredKg.Sub(available)
		if available.IsNegative() {
			available = decimal.Zero
			shortfall = requiredKg
		}
		return &domain.InsufficientCapacityError{
			LocationID:  location.ID,
			RequiredKg:  requiredKg,
			AvailableKg: available,
			ShortfallKg: shortfall,
		}
	}
	return nil
}
