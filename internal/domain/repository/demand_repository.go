package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SizeDemandResult fila cruda de estadística de demanda por talla.
type SizeDemandResult struct {
	SizeClass      int
	TotalWeightKg  decimal.Decimal
	RequesterCount int
	OrderCount     int
	FirstRequestAt time.Time
	LastRequestAt  time.Time
}

// DemandRepository consultas de solo lectura sobre pedidos históricos (externos al libro de lotes).
type DemandRepository interface {
	// SizeDemandStatistics agrega por talla; el orden lo decide el Agregador.
	SizeDemandStatistics(ctx context.Context) ([]SizeDemandResult, error)
}
