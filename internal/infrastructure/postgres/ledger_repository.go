package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro de lotes sobre PostgreSQL. Un trigger impide UPDATE y DELETE en la tabla.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del libro.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, batch_id, location_id, size_class, quantity, weight_kg, entry_type, transfer_id, created_by, "timestamp"`

// Append inserta los asientos en un único batch de pgx.
func (r *LedgerRepo) Append(ctx context.Context, entries ...*entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	b := &pgx.Batch{}
	for _, e := range entries {
		var transferID *string
		if e.TransferID != "" {
			transferID = &e.TransferID
		}
		b.Queue(query, e.ID, e.BatchID, e.LocationID, e.SizeClass, e.Quantity, e.WeightKg,
			e.EntryType, transferID, e.CreatedBy, e.Timestamp)
	}
	br := r.q.SendBatch(ctx, b)
	for range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return wrapErr("insert ledger entry", err)
		}
	}
	if err := br.Close(); err != nil {
		return wrapErr("insert ledger entries", err)
	}
	return nil
}

func (r *LedgerRepo) SumByCell(ctx context.Context, locationID string, sizeClass int) (int, decimal.Decimal, error) {
	return r.sum(ctx, `WHERE location_id = $1 AND size_class = $2`, locationID, sizeClass)
}

func (r *LedgerRepo) SumByBatch(ctx context.Context, batchID string) (int, decimal.Decimal, error) {
	return r.sum(ctx, `WHERE batch_id = $1`, batchID)
}

func (r *LedgerRepo) ListByCell(ctx context.Context, locationID string, sizeClass int) ([]entity.LedgerEntry, error) {
	return r.list(ctx, `WHERE location_id = $1 AND size_class = $2`, locationID, sizeClass)
}

func (r *LedgerRepo) ListByBatch(ctx context.Context, batchID string) ([]entity.LedgerEntry, error) {
	return r.list(ctx, `WHERE batch_id = $1`, batchID)
}

func (r *LedgerRepo) ListByLocation(ctx context.Context, locationID string) ([]entity.LedgerEntry, error) {
	return r.list(ctx, `WHERE location_id = $1`, locationID)
}

func (r *LedgerRepo) ListAll(ctx context.Context) ([]entity.LedgerEntry, error) {
	return r.list(ctx, ``)
}

func (r *LedgerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, wrapErr("count ledger entries", err)
	}
	return n, nil
}

func (r *LedgerRepo) sum(ctx context.Context, where string, args ...any) (int, decimal.Decimal, error) {
	var qty int
	var weight decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(weight_kg), 0) FROM ledger_entries `+where, args...,
	).Scan(&qty, &weight)
	if err != nil {
		return 0, decimal.Zero, wrapErr("sum ledger entries", err)
	}
	return qty, weight, nil
}

func (r *LedgerRepo) list(ctx context.Context, where string, args ...any) ([]entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries `+where+` ORDER BY "timestamp", id`, args...)
	if err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	defer rows.Close()
	var out []entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		var transferID *string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.LocationID, &e.SizeClass, &e.Quantity, &e.WeightKg,
			&e.EntryType, &transferID, &e.CreatedBy, &e.Timestamp); err != nil {
			return nil, wrapErr("scan ledger entry", err)
		}
		if transferID != nil {
			e.TransferID = *transferID
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
