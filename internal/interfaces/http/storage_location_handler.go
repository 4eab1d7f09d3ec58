package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/application/usecase"
	"github.com/jhoicas/fishstock-api/pkg/logger"
)

// StorageLocationHandler administración de cámaras y congeladores (protegido).
type StorageLocationHandler struct {
	uc  *usecase.StorageLocationUseCase
	log *logger.Logger
}

// NewStorageLocationHandler construye el handler.
func NewStorageLocationHandler(uc *usecase.StorageLocationUseCase, log *logger.Logger) *StorageLocationHandler {
	return &StorageLocationHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear ubicación de almacenamiento
// @Tags         storage-locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStorageLocationRequest  true  "Datos de la ubicación"
// @Success      201   {object}  dto.StorageLocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/storage-locations [post]
func (h *StorageLocationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStorageLocationRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener ubicación con su uso actual
// @Tags         storage-locations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.StorageLocationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/storage-locations/{id} [get]
func (h *StorageLocationHandler) GetByID(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ubicaciones
// @Tags         storage-locations
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StorageLocationListResponse
// @Router       /api/storage-locations [get]
func (h *StorageLocationHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de una ubicación
// @Tags         storage-locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la ubicación"
// @Param        body  body  dto.UpdateStorageLocationStatusRequest  true  "active | maintenance | inactive"
// @Success      200  {object}  dto.StorageLocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/storage-locations/{id}/status [patch]
func (h *StorageLocationHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.UpdateStorageLocationStatusRequest
	if err := bind(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
