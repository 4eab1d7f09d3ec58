package http

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fishstock-api/internal/application/dto"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	pkgredis "github.com/jhoicas/fishstock-api/pkg/redis"
)

// HeaderIdempotencyKey cabecera opcional en los POST que modifican el inventario.
const HeaderIdempotencyKey = "Idempotency-Key"

const inFlightStatus = 0

type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency garantiza a lo sumo una ejecución por (usuario, método, ruta, Idempotency-Key).
// La clave se reserva con SETNX antes de ejecutar el handler; una repetición recibe la respuesta
// guardada, y una repetición concurrente recibe 409 mientras la primera sigue en curso.
// Las respuestas 5xx liberan la clave para permitir el reintento. Sin store o sin cabecera no hace nada.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if store == nil || id == "" {
			return c.Next()
		}
		ctx := c.UserContext()
		hash := hashBody(c.Body())
		key := store.IdempotencyKey(strings.Join([]string{GetUserID(c), c.Method(), c.Path()}, "|"), id)

		reserved, err := json.Marshal(idempotencyRecord{Status: inFlightStatus, RequestHash: hash})
		if err != nil {
			return writeError(c, log, err)
		}
		ok, err := store.SetNX(ctx, key, string(reserved), ttl)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("reservar idempotency key")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la Idempotency-Key"})
		}
		if !ok {
			return replay(c, store, key, hash, log)
		}

		if err := c.Next(); err != nil {
			_ = store.Del(ctx, key)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if err := store.Del(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("liberar idempotency key")
			}
			return nil
		}
		final, err := json.Marshal(idempotencyRecord{
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: string(c.Response().Header.ContentType()),
			RequestHash: hash,
		})
		if err != nil {
			log.Error().Err(err).Msg("serializar respuesta idempotente")
			return nil
		}
		// Sobrescribe la reserva sin dejar la clave libre en ningún momento.
		if err := store.Set(ctx, key, string(final), ttl); err != nil {
			log.Error().Err(err).Str("key", key).Msg("persistir respuesta idempotente")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store pkgredis.IdempotencyStore, key, hash string, log *logger.Logger) error {
	stored, err := store.Get(c.UserContext(), key)
	if errors.Is(err, pkgredis.ErrMiss) {
		// Se liberó entre SETNX y GET: el primer intento falló con 5xx.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "reintente la petición"})
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("leer idempotency key")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la Idempotency-Key"})
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return writeError(c, log, err)
	}
	if record.RequestHash != hash {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: "Idempotency-Key reutilizada con otro cuerpo"})
	}
	if record.Status == inFlightStatus {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "la petición original sigue en curso"})
	}
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		return writeError(c, log, err)
	}
	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	c.Set("Idempotent-Replayed", "true")
	return c.Status(record.Status).Send(body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
