package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asiento del libro de lotes.
const (
	EntryTypeAddition    = "addition"
	EntryTypeTransferOut = "transfer_out"
	EntryTypeTransferIn  = "transfer_in"
	EntryTypeDisposal    = "disposal"
	EntryTypeDispatch    = "dispatch"
)

// LedgerEntry asiento firmado (lote, ubicación, talla). Solo se agregan, nunca se modifican.
// Quantity y WeightKg son negativos en salidas (transfer_out, disposal, dispatch).
type LedgerEntry struct {
	ID         string
	BatchID    string
	LocationID string
	SizeClass  int
	Quantity   int
	WeightKg   decimal.Decimal
	Timestamp  time.Time
	EntryType  string
	TransferID string // vacío salvo en asientos de liquidación de traslado
	CreatedBy  string
}

// IsInbound reporta si el tipo de asiento suma stock.
func IsInbound(entryType string) bool {
	return entryType == EntryTypeAddition || entryType == EntryTypeTransferIn
}

// ValidEntryType reporta si t es un tipo de asiento conocido.
func ValidEntryType(t string) bool {
	switch t {
	case EntryTypeAddition, EntryTypeTransferOut, EntryTypeTransferIn, EntryTypeDisposal, EntryTypeDispatch:
		return true
	}
	return false
}

// CellKey identifica una celda (ubicación, talla).
type CellKey struct {
	LocationID string
	SizeClass  int
}
