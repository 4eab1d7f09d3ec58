package repository

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

// BatchRepository define el puerto para lotes (inmutables: no hay Update ni Delete).
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetByProcessingRecord(ctx context.Context, processingRecordID string) (*entity.Batch, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Batch, error)
}
