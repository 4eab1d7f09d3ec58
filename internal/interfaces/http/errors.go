package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/internal/domain"
	"github.com/jhoicas/fishstock-api/pkg/logger"
)

// errorBody traduce un error de dominio a status HTTP y cuerpo. Los errores tipados viajan con
// sus datos en Details para que el cliente muestre el faltante exacto.
func errorBody(err error) (int, dto.ErrorResponse) {
	var (
		validation *domain.ValidationError
		stock      *domain.InsufficientStockError
		capacity   *domain.InsufficientCapacityError
		pending    *domain.DuplicatePendingTransferError
		consist    *domain.ConsistencyError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "VALIDATION", Message: err.Error(),
			Details: map[string]any{"field": validation.Field, "reason": validation.Reason},
		}
	case errors.As(err, &stock):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: err.Error(),
			Details: map[string]any{
				"location_id": stock.LocationID,
				"size_class":  stock.SizeClass,
				"requested":   stock.Requested,
				"available":   stock.Available,
				"shortfall":   stock.Shortfall,
			},
		}
	case errors.As(err, &capacity):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "INSUFFICIENT_CAPACITY", Message: err.Error(),
			Details: map[string]any{
				"location_id":  capacity.LocationID,
				"required_kg":  dto.KgOf(capacity.RequiredKg),
				"available_kg": dto.KgOf(capacity.AvailableKg),
				"shortfall_kg": dto.KgOf(capacity.ShortfallKg),
			},
		}
	case errors.As(err, &pending):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "DUPLICATE_PENDING_TRANSFER", Message: err.Error(),
			Details: map[string]any{
				"existing_transfer_id": pending.ExistingTransferID,
				"source":               pending.SourceLocationID,
				"size_classes":         pending.SizeClasses,
			},
		}
	case errors.As(err, &consist):
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "CONSISTENCY", Message: "inconsistencia de inventario"}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación excedió el tiempo"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

// writeError responde con el error mapeado; los 5xx se registran con el error original.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := errorBody(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("code", body.Code).Msg("error en petición")
	}
	return c.Status(status).JSON(body)
}
