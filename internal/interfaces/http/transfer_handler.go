package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/application/inventory"
	"github.com/jhoicas/fishstock-api/internal/domain/entity"
	"github.com/jhoicas/fishstock-api/pkg/logger"
)

// TransferHandler solicitudes de traslado entre ubicaciones (protegido).
type TransferHandler struct {
	coordinator *inventory.TransferCoordinator
	log         *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(coordinator *inventory.TransferCoordinator, log *logger.Logger) *TransferHandler {
	return &TransferHandler{coordinator: coordinator, log: log}
}

// Create godoc
// @Summary      Solicitar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreateTransferRequest  true  "Origen, destino e ítems"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]entity.TransferItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.TransferItem{SizeClass: it.SizeClass, Quantity: it.Quantity, WeightKg: it.WeightKg.Decimal})
	}
	t, err := h.coordinator.CreateTransfer(c.UserContext(), inventory.CreateTransferInput{
		SourceLocationID:      in.Source,
		DestinationLocationID: in.Destination,
		Items:                 items,
		RequestedBy:           GetUserID(c),
		Notes:                 in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToTransferResponse(t))
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending | approved | rejected | completed"
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	list, err := h.coordinator.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, inventory.ToTransferResponse(t))
	}
	return c.JSON(dto.TransferListResponse{Items: items, Total: len(items)})
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.coordinator.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

// Approve godoc
// @Summary      Aprobar traslado (revalida y liquida en el libro)
// @Description  Si el stock o la capacidad ya no alcanzan, el traslado queda rejected y la respuesta
// @Description  409 incluye el traslado actualizado.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.TransferErrorResponse
// @Router       /api/inventory/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.coordinator.Approve(c.UserContext(), id, GetUserID(c))
	if err != nil {
		if t == nil {
			return writeError(c, h.log, err)
		}
		status, body := errorBody(err)
		resp := inventory.ToTransferResponse(t)
		return c.Status(status).JSON(dto.TransferErrorResponse{
			Code:     body.Code,
			Message:  body.Message,
			Details:  body.Details,
			Transfer: &resp,
		})
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

// Reject godoc
// @Summary      Rechazar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del traslado"
// @Param        body  body  dto.RejectTransferRequest  true  "Motivo"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.RejectTransferRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.coordinator.Reject(c.UserContext(), id, in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}
