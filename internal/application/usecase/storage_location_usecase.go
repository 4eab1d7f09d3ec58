package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StorageLocationUseCase casos de uso de administración de ubicaciones de almacenamiento.
type StorageLocationUseCase struct {
	repo     repository.StorageLocationRepository
	capacity *inventory.CapacityService
}

// NewStorageLocationUseCase construye el caso de uso.
func NewStorageLocationUseCase(repo repository.StorageLocationRepository, capacity *inventory.CapacityService) *StorageLocationUseCase {
	return &StorageLocationUseCase{repo: repo, capacity: capacity}
}

// Create crea una ubicación activa y vacía.
func (uc *StorageLocationUseCase) Create(ctx context.Context, in dto.CreateStorageLocationRequest) (*dto.StorageLocationResponse, error) {
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "es requerido")
	}
	if !entity.ValidLocationType(in.Type) {
		return nil, domain.NewValidationError("type", "tipo de ubicación desconocido: "+in.Type)
	}
	if !in.CapacityKg.IsPositive() {
		return nil, domain.NewValidationError("capacity_kg", "debe ser mayor que cero")
	}
	now := time.Now().UTC()
	loc := &entity.StorageLocation{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Type:           in.Type,
		CapacityKg:     in.CapacityKg.Round(1),
		CurrentUsageKg: decimal.Zero,
		Status:         entity.LocationStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, loc.ID)
}

// GetByID obtiene una ubicación con su uso actual.
func (uc *StorageLocationUseCase) GetByID(ctx context.Context, id string) (*dto.StorageLocationResponse, error) {
	u, err := uc.capacity.Describe(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStorageLocationResponse(u), nil
}

// List lista todas las ubicaciones con su uso actual.
func (uc *StorageLocationUseCase) List(ctx context.Context) (*dto.StorageLocationListResponse, error) {
	list, err := uc.capacity.DescribeAll(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StorageLocationResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *toStorageLocationResponse(u))
	}
	return &dto.StorageLocationListResponse{Items: items, Total: len(items)}, nil
}

// UpdateStatus cambia el estado operativo; solo las ubicaciones activas reciben stock.
func (uc *StorageLocationUseCase) UpdateStatus(ctx context.Context, id string, in dto.UpdateStorageLocationStatusRequest) (*dto.StorageLocationResponse, error) {
	if !entity.ValidLocationStatus(in.Status) {
		return nil, domain.NewValidationError("status", "estado desconocido: "+in.Status)
	}
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.repo.UpdateStatus(ctx, id, in.Status); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

func toStorageLocationResponse(u *inventory.LocationUsage) *dto.StorageLocationResponse {
	if u == nil || u.Location == nil {
		return nil
	}
	l := u.Location
	return &dto.StorageLocationResponse{
		ID:             l.ID,
		Name:           l.Name,
		Type:           l.Type,
		CapacityKg:     dto.KgOf(l.CapacityKg),
		CurrentUsageKg: dto.KgOf(u.UsageKg),
		AvailableKg:    dto.KgOf(u.AvailableKg),
		UtilizationPct: u.UtilizationPct,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
