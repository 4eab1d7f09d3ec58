package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo lotes sobre PostgreSQL. La tabla no admite duplicados por registro de procesamiento.
type BatchRepo struct {
	q Querier
}

func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (id, batch_number, source_processing_record_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		b.ID, b.BatchNumber, b.SourceProcessingRecordID, b.CreatedAt)
	if err != nil {
		return wrapErr("insert batch", err)
	}
	return nil
}

func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *BatchRepo) GetByProcessingRecord(ctx context.Context, processingRecordID string) (*entity.Batch, error) {
	return r.getOne(ctx, `WHERE source_processing_record_id = $1`, processingRecordID)
}

func (r *BatchRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, batch_number, source_processing_record_id, created_at
		FROM batches WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, wrapErr("list batches", err)
	}
	defer rows.Close()
	var out []*entity.Batch
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(&b.ID, &b.BatchNumber, &b.SourceProcessingRecordID, &b.CreatedAt); err != nil {
			return nil, wrapErr("scan batch", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *BatchRepo) getOne(ctx context.Context, where string, arg any) (*entity.Batch, error) {
	var b entity.Batch
	err := r.q.QueryRow(ctx, `
		SELECT id, batch_number, source_processing_record_id, created_at
		FROM batches `+where, arg).Scan(&b.ID, &b.BatchNumber, &b.SourceProcessingRecordID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, nil
		}
		return nil, wrapErr("get batch", err)
	}
	return &b, nil
}
