package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado. rejected y completed son terminales.
const (
	TransferStatusPending   = "pending"
	TransferStatusApproved  = "approved"
	TransferStatusRejected  = "rejected"
	TransferStatusCompleted = "completed"
)

// TransferItem talla y cantidad a mover.
type TransferItem struct {
	SizeClass int
	Quantity  int
	WeightKg  decimal.Decimal
}

// TransferRequest solicitud de traslado entre ubicaciones sujeta a aprobación.
type TransferRequest struct {
	ID                    string
	SourceLocationID      string
	DestinationLocationID string
	Items                 []TransferItem
	Status                string
	RequestedBy           string
	ApprovedBy            string
	Notes                 string
	DecisionReason        string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DecidedAt             *time.Time
	CompletedAt           *time.Time
}

// TotalWeight suma el peso de todos los ítems.
func (t *TransferRequest) TotalWeight() decimal.Decimal {
	total := decimal.Zero
	for _, it := range t.Items {
		total = total.Add(it.WeightKg)
	}
	return total
}

// SizeClasses devuelve las tallas del traslado en el orden de los ítems.
func (t *TransferRequest) SizeClasses() []int {
	out := make([]int, 0, len(t.Items))
	for _, it := range t.Items {
		out = append(out, it.SizeClass)
	}
	return out
}

// IsTerminal reporta si el estado ya no admite transiciones.
func (t *TransferRequest) IsTerminal() bool {
	return t.Status == TransferStatusRejected || t.Status == TransferStatusCompleted
}

// CanTransition aplica la máquina de estados pending → {approved, rejected}, approved → completed.
func CanTransition(from, to string) bool {
	switch from {
	case TransferStatusPending:
		return to == TransferStatusApproved || to == TransferStatusRejected
	case TransferStatusApproved:
		return to == TransferStatusCompleted
	}
	return false
}

// ValidTransferStatus reporta si s es un estado conocido.
func ValidTransferStatus(s string) bool {
	switch s {
	case TransferStatusPending, TransferStatusApproved, TransferStatusRejected, TransferStatusCompleted:
		return true
	}
	return false
}
