package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ubicación de almacenamiento.
const (
	LocationTypeColdStorage    = "cold_storage"
	LocationTypeFreezer        = "freezer"
	LocationTypeAmbient        = "ambient"
	LocationTypeProcessingArea = "processing_area"
)

// Estados de una ubicación.
const (
	LocationStatusActive      = "active"
	LocationStatusMaintenance = "maintenance"
	LocationStatusInactive    = "inactive"
)

// StorageLocation cámara, congelador o zona física donde se guarda pescado por talla.
// CurrentUsageKg no se persiste: lo calcula el modelo de capacidad desde el libro de lotes.
type StorageLocation struct {
	ID             string
	Name           string
	Type           string
	CapacityKg     decimal.Decimal
	CurrentUsageKg decimal.Decimal
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive indica si la ubicación acepta entradas y traslados.
func (l *StorageLocation) IsActive() bool {
	return l.Status == LocationStatusActive
}

// ValidLocationType reporta si t es un tipo de ubicación conocido.
func ValidLocationType(t string) bool {
	switch t {
	case LocationTypeColdStorage, LocationTypeFreezer, LocationTypeAmbient, LocationTypeProcessingArea:
		return true
	}
	return false
}

// ValidLocationStatus reporta si s es un estado de ubicación conocido.
func ValidLocationStatus(s string) bool {
	switch s {
	case LocationStatusActive, LocationStatusMaintenance, LocationStatusInactive:
		return true
	}
	return false
}
