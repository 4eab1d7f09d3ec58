package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, toma un advisory lock por ubicación (orden fijo para evitar
// interbloqueos), ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los locks se liberan solos al terminar la transacción.
func (r *TxRunner) Run(ctx context.Context, lockLocationIDs []string, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range lockKeys(lockLocationIDs) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "location:"+id); err != nil {
			return wrapErr("lock location "+id, err)
		}
	}

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Repos repositorios sobre el pool, sin transacción explícita (lecturas y altas simples).
func Repos(pool *pgxpool.Pool) inventory.Repos {
	return reposFor(pool)
}

func reposFor(q Querier) inventory.Repos {
	return inventory.Repos{
		Locations: NewStorageLocationRepository(q),
		Batches:   NewBatchRepository(q),
		Ledger:    NewLedgerRepository(q),
		Transfers: NewTransferRepository(q),
	}
}

func lockKeys(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
