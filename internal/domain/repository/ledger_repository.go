package repository

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LedgerRepository define el puerto del libro de lotes (append-only).
// Las listas se devuelven ordenadas por timestamp ascendente y luego por ID.
type LedgerRepository interface {
	// Append persiste los asientos en bloque; dentro de una tx todos o ninguno.
	Append(ctx context.Context, entries ...*entity.LedgerEntry) error
	SumByCell(ctx context.Context, locationID string, sizeClass int) (int, decimal.Decimal, error)
	SumByBatch(ctx context.Context, batchID string) (int, decimal.Decimal, error)
	ListByCell(ctx context.Context, locationID string, sizeClass int) ([]entity.LedgerEntry, error)
	ListByBatch(ctx context.Context, batchID string) ([]entity.LedgerEntry, error)
	ListByLocation(ctx context.Context, locationID string) ([]entity.LedgerEntry, error)
	ListAll(ctx context.Context) ([]entity.LedgerEntry, error)
	Count(ctx context.Context) (int, error)
}
