package repository

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

// StorageLocationRepository define el puerto de persistencia para ubicaciones de almacenamiento (DIP).
// GetByID devuelve (nil, nil) si no existe.
type StorageLocationRepository interface {
	Create(ctx context.Context, location *entity.StorageLocation) error
	GetByID(ctx context.Context, id string) (*entity.StorageLocation, error)
	List(ctx context.Context) ([]*entity.StorageLocation, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
