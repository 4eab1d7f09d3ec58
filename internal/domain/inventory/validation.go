package inventory

import (
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
)

// ValidateEntry aplica las reglas de forma de un asiento antes de agregarlo al libro.
// La existencia de lote y ubicación la verifica el servicio del libro.
func ValidateEntry(e *entity.LedgerEntry) error {
	if e.BatchID == "" {
		return domain.NewValidationError("batch_id", "es requerido")
	}
	if e.LocationID == "" {
		return domain.NewValidationError("location_id", "es requerido")
	}
	if e.SizeClass <= 0 {
		return domain.NewValidationError("size_class", "debe ser un entero positivo")
	}
	if !entity.ValidEntryType(e.EntryType) {
		return domain.NewValidationError("entry_type", "tipo de asiento desconocido: "+e.EntryType)
	}
	if e.Quantity == 0 {
		return domain.NewValidationError("quantity", "no puede ser cero")
	}
	if (e.Quantity > 0 && e.WeightKg.IsNegative()) || (e.Quantity < 0 && e.WeightKg.IsPositive()) {
		return domain.NewValidationError("weight_kg", "el signo debe coincidir con quantity")
	}
	if !e.WeightKg.Equal(RoundWeight(e.WeightKg)) {
		return domain.NewValidationError("weight_kg", "máximo un decimal")
	}
	inbound := entity.IsInbound(e.EntryType)
	if inbound && e.Quantity < 0 {
		return domain.NewValidationError("quantity", "debe ser positiva para "+e.EntryType)
	}
	if !inbound && e.Quantity > 0 {
		return domain.NewValidationError("quantity", "debe ser negativa para "+e.EntryType)
	}
	return nil
}
