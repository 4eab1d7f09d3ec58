package entity

import "time"

// Batch unidad de procedencia: traza el stock hasta un registro de procesamiento. Inmutable.
type Batch struct {
	ID                       string
	BatchNumber              string
	SourceProcessingRecordID string
	CreatedAt                time.Time
}
