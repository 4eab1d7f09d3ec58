package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandRecord pedido histórico de un cliente por talla (lo escribe el módulo de pedidos).
// Solo lectura para este núcleo.
type DemandRecord struct {
	ID                string
	RequesterID       string
	SizeClass         int
	RequestedWeightKg decimal.Decimal
	RequestedAt       time.Time
}
