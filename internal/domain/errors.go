package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInsufficientCapacity  = errors.New("capacidad insuficiente")
	ErrDuplicatePendingTrans = errors.New("ya existe un traslado pendiente para el origen y talla")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrConsistency           = errors.New("inconsistencia de inventario")
)

// ValidationError entrada mal formada; se devuelve tal cual al llamador.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError la celda (ubicación, talla) no tiene las piezas pedidas.
type InsufficientStockError struct {
	LocationID string
	SizeClass  int
	Requested  int
	Available  int
	Shortfall  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s talla %d: solicitado %d, disponible %d (faltan %d)",
		e.LocationID, e.SizeClass, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InsufficientCapacityError el destino no admite el peso pedido.
type InsufficientCapacityError struct {
	LocationID  string
	RequiredKg  decimal.Decimal
	AvailableKg decimal.Decimal
	ShortfallKg decimal.Decimal
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("capacidad insuficiente en %s: requerido %s kg, disponible %s kg (faltan %s kg)",
		e.LocationID, e.RequiredKg.StringFixed(1), e.AvailableKg.StringFixed(1), e.ShortfallKg.StringFixed(1))
}

func (e *InsufficientCapacityError) Is(target error) bool { return target == ErrInsufficientCapacity }

// DuplicatePendingTransferError lleva el ID del traslado pendiente para que el llamador lo enlace.
type DuplicatePendingTransferError struct {
	ExistingTransferID string
	SourceLocationID   string
	SizeClasses        []int
}

func (e *DuplicatePendingTransferError) Error() string {
	sizes := make([]string, 0, len(e.SizeClasses))
	for _, s := range e.SizeClasses {
		sizes = append(sizes, fmt.Sprint(s))
	}
	return fmt.Sprintf("traslado pendiente %s ya cubre las tallas [%s] desde %s",
		e.ExistingTransferID, strings.Join(sizes, ","), e.SourceLocationID)
}

func (e *DuplicatePendingTransferError) Is(target error) bool {
	return target == ErrDuplicatePendingTrans
}

// ConsistencyError violación de invariante de programación (suma negativa en una celda o lote).
// Nunca se espera en operación correcta.
type ConsistencyError struct {
	LocationID string
	SizeClass  int
	BatchID    string
	Detail     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistencia de inventario (ubicación=%s talla=%d lote=%s): %s",
		e.LocationID, e.SizeClass, e.BatchID, e.Detail)
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }
