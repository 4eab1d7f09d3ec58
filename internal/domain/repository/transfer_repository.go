package repository

import (
	"context"

	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para solicitudes de traslado.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.TransferRequest) error
	GetByID(ctx context.Context, id string) (*entity.TransferRequest, error)
	// Update persiste estado, aprobador, motivo y fechas de decisión; los ítems no cambian.
	Update(ctx context.Context, transfer *entity.TransferRequest) error
	// List filtra por estado; status vacío devuelve todos. Orden: más recientes primero.
	List(ctx context.Context, status string) ([]*entity.TransferRequest, error)
	ListPendingBySource(ctx context.Context, sourceLocationID string) ([]*entity.TransferRequest, error)
}
