package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStorageLocationRequest entrada para crear una ubicación.
type CreateStorageLocationRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Type       string `json:"type" validate:"required,oneof=cold_storage freezer ambient processing_area"`
	CapacityKg Kg     `json:"capacity_kg"`
}

// UpdateStorageLocationStatusRequest entrada para cambiar el estado de una ubicación.
type UpdateStorageLocationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active maintenance inactive"`
}

// StorageLocationResponse salida de una ubicación con su uso derivado del libro.
type StorageLocationResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	CapacityKg     Kg              `json:"capacity_kg"`
	CurrentUsageKg Kg              `json:"current_usage_kg"`
	AvailableKg    Kg              `json:"available_kg"`
	UtilizationPct decimal.Decimal `json:"utilization_pct"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StorageLocationListResponse lista de ubicaciones.
type StorageLocationListResponse struct {
	Items []StorageLocationResponse `json:"items"`
	Total int                       `json:"total"`
}
