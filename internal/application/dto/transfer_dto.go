package dto

import "time"

// TransferItemDTO talla, piezas y peso de un traslado.
type TransferItemDTO struct {
	SizeClass int `json:"size_class" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
	WeightKg  Kg  `json:"weight_kg"`
}

// CreateTransferRequest body para POST /api/inventory/transfers.
type CreateTransferRequest struct {
	Source      string            `json:"source" validate:"required,uuid"`
	Destination string            `json:"destination" validate:"required,uuid"`
	Items       []TransferItemDTO `json:"items" validate:"required,min=1,dive"`
	Notes       string            `json:"notes" validate:"max=500"`
}

// RejectTransferRequest body para POST /api/inventory/transfers/:id/reject.
type RejectTransferRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransferResponse salida de una solicitud de traslado.
type TransferResponse struct {
	ID             string            `json:"id"`
	Source         string            `json:"source"`
	Destination    string            `json:"destination"`
	Items          []TransferItemDTO `json:"items"`
	TotalWeightKg  Kg                `json:"total_weight_kg"`
	Status         string            `json:"status"`
	RequestedBy    string            `json:"requested_by"`
	ApprovedBy     string            `json:"approved_by,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	DecisionReason string            `json:"decision_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DecidedAt      *time.Time        `json:"decided_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// TransferListResponse lista de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Total int                `json:"total"`
}

// TransferErrorResponse error de negocio de un traslado; Transfer viaja cuando la aprobación lo
// dejó en rejected.
type TransferErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Details  map[string]any    `json:"details,omitempty"`
	Transfer *TransferResponse `json:"transfer,omitempty"`
}
