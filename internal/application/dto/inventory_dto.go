package dto

import "time"

// BatchContributionDTO aporte restante de un lote dentro de una celda.
type BatchContributionDTO struct {
	BatchID      string    `json:"batch_id"`
	BatchNumber  string    `json:"batch_number"`
	FirstAddedAt time.Time `json:"first_added_at"`
	Quantity     int       `json:"quantity"`
	WeightKg     Kg        `json:"weight_kg"`
}

// InventoryByLocationRow fila de GET /api/inventory/by-location.
type InventoryByLocationRow struct {
	LocationID          string                 `json:"location_id"`
	LocationName        string                 `json:"location_name"`
	SizeClass           int                    `json:"size_class"`
	Quantity            int                    `json:"quantity"`
	WeightKg            Kg                     `json:"weight_kg"`
	ContributingBatches []BatchContributionDTO `json:"contributing_batches"`
}

// BatchCellDTO posición de un lote en una celda.
type BatchCellDTO struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	SizeClass    int    `json:"size_class"`
	Quantity     int    `json:"quantity"`
	WeightKg     Kg     `json:"weight_kg"`
}

// OldestBatchDTO fila de GET /api/inventory/oldest-batches.
type OldestBatchDTO struct {
	BatchID            string         `json:"batch_id"`
	BatchNumber        string         `json:"batch_number"`
	ProcessingRecordID string         `json:"processing_record_id"`
	FirstAddedAt       time.Time      `json:"first_added_at"`
	AgeDays            int            `json:"age_days"`
	Quantity           int            `json:"quantity"`
	WeightKg           Kg             `json:"weight_kg"`
	Cells              []BatchCellDTO `json:"cells"`
}

// SizeDemandDTO fila de GET /api/inventory/size-demand-statistics.
type SizeDemandDTO struct {
	SizeClass      int       `json:"size_class"`
	TotalWeightKg  Kg        `json:"total_weight_kg"`
	RequesterCount int       `json:"requester_count"`
	OrderCount     int       `json:"order_count"`
	FirstRequestAt time.Time `json:"first_request_at"`
	LastRequestAt  time.Time `json:"last_request_at"`
}

// CellStockResponse stock de una celda (ubicación, talla).
type CellStockResponse struct {
	LocationID string `json:"location_id"`
	SizeClass  int    `json:"size_class"`
	Quantity   int    `json:"quantity"`
	WeightKg   Kg     `json:"weight_kg"`
}

// ProcessingItemRequest talla producida por un registro de procesamiento.
type ProcessingItemRequest struct {
	SizeClass int `json:"size_class" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
	WeightKg  Kg  `json:"weight_kg"`
}

// AddProcessingBatchRequest body para POST /api/inventory/processing-batches.
type AddProcessingBatchRequest struct {
	ProcessingRecordID string                  `json:"processing_record_id" validate:"required"`
	BatchNumber        string                  `json:"batch_number" validate:"required,max=100"`
	LocationID         string                  `json:"location_id" validate:"required,uuid"`
	Items              []ProcessingItemRequest `json:"items" validate:"required,min=1,dive"`
}

// LedgerEntryResponse asiento del libro de lotes.
type LedgerEntryResponse struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	LocationID string    `json:"location_id"`
	SizeClass  int       `json:"size_class"`
	Quantity   int       `json:"quantity"`
	WeightKg   Kg        `json:"weight_kg"`
	EntryType  string    `json:"entry_type"`
	TransferID string    `json:"transfer_id,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProcessingBatchResponse lote creado y sus entradas.
type ProcessingBatchResponse struct {
	BatchID            string                `json:"batch_id"`
	BatchNumber        string                `json:"batch_number"`
	ProcessingRecordID string                `json:"processing_record_id"`
	CreatedAt          time.Time             `json:"created_at"`
	Entries            []LedgerEntryResponse `json:"entries"`
}

// RemoveStockRequest body para POST /api/inventory/removals.
type RemoveStockRequest struct {
	LocationID string `json:"location_id" validate:"required,uuid"`
	SizeClass  int    `json:"size_class" validate:"required,gt=0"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	EntryType  string `json:"entry_type" validate:"required,oneof=disposal dispatch"`
}

// RemoveStockResponse asientos generados por una baja.
type RemoveStockResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
}
