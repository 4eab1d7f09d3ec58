package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/pkg/logger"
)

// InventoryHandler consultas de inventario, ingreso desde procesamiento y bajas (protegido).
type InventoryHandler struct {
	reports *inventory.ReportingFacade
	intake  *inventory.ProcessingIntake
	removal *inventory.RemovalService
	log     *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	reports *inventory.ReportingFacade,
	intake *inventory.ProcessingIntake,
	removal *inventory.RemovalService,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{reports: reports, intake: intake, removal: removal, log: log}
}

// ByLocation godoc
// @Summary      Stock por ubicación y talla
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.InventoryByLocationRow
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/by-location [get]
func (h *InventoryHandler) ByLocation(c *fiber.Ctx) error {
	rows, err := h.reports.InventoryByLocation(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}

// OldestBatches godoc
// @Summary      Lotes más antiguos con stock (candidatos a salir primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de lotes"  default(10)
// @Success      200  {array}   dto.OldestBatchDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/oldest-batches [get]
func (h *InventoryHandler) OldestBatches(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return writeError(c, h.log, domain.NewValidationError("limit", "debe ser un entero positivo"))
		}
		limit = n
	}
	rows, err := h.reports.OldestBatchesForRemoval(c.UserContext(), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}

// SizeDemandStatistics godoc
// @Summary      Demanda histórica por talla
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.SizeDemandDTO
// @Router       /api/inventory/size-demand-statistics [get]
func (h *InventoryHandler) SizeDemandStatistics(c *fiber.Ctx) error {
	rows, err := h.reports.SizeDemandStatistics(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}

// CellStock godoc
// @Summary      Stock de una celda (ubicación, talla)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        locationId  path  string  true  "ID de la ubicación"
// @Param        sizeClass   path  int     true  "Talla"
// @Success      200  {object}  dto.CellStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/cells/{locationId}/{sizeClass} [get]
func (h *InventoryHandler) CellStock(c *fiber.Ctx) error {
	sizeClass, err := c.ParamsInt("sizeClass")
	if err != nil || sizeClass <= 0 {
		return writeError(c, h.log, domain.NewValidationError("size_class", "debe ser un entero positivo"))
	}
	locationID, err := pathID(c, "locationId")
	if err != nil {
		return writeError(c, h.log, domain.NewValidationError("location_id", "debe ser un UUID"))
	}
	out, err := h.reports.CellStock(c.UserContext(), locationID, sizeClass)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// AddProcessingBatch godoc
// @Summary      Ingresar un lote desde procesamiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.AddProcessingBatchRequest  true  "Registro de procesamiento, lote, ubicación e ítems"
// @Success      201  {object}  dto.ProcessingBatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/processing-batches [post]
func (h *InventoryHandler) AddProcessingBatch(c *fiber.Ctx) error {
	var in dto.AddProcessingBatchRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]inventory.ProcessingItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.ProcessingItem{SizeClass: it.SizeClass, Quantity: it.Quantity, WeightKg: it.WeightKg.Decimal})
	}
	batch, entries, err := h.intake.AddStockFromProcessing(c.UserContext(), inventory.ProcessingInput{
		ProcessingRecordID: in.ProcessingRecordID,
		BatchNumber:        in.BatchNumber,
		LocationID:         in.LocationID,
		Items:              items,
		CreatedBy:          GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ProcessingBatchResponse{
		BatchID:            batch.ID,
		BatchNumber:        batch.BatchNumber,
		ProcessingRecordID: batch.SourceProcessingRecordID,
		CreatedAt:          batch.CreatedAt,
		Entries:            inventory.ToLedgerEntryResponses(entries),
	})
}

// RemoveStock godoc
// @Summary      Descarte o despacho de stock (FIFO)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.RemoveStockRequest  true  "Celda, piezas y tipo de baja"
// @Success      201  {object}  dto.RemoveStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/removals [post]
func (h *InventoryHandler) RemoveStock(c *fiber.Ctx) error {
	var in dto.RemoveStockRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	entries, err := h.removal.RemoveStock(c.UserContext(), inventory.RemovalInput{
		LocationID: in.LocationID,
		SizeClass:  in.SizeClass,
		Quantity:   in.Quantity,
		EntryType:  in.EntryType,
		CreatedBy:  GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RemoveStockResponse{Entries: inventory.ToLedgerEntryResponses(entries)})
}
