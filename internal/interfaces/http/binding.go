package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/fishstock-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores nombran el campo como lo ve el cliente (tag json).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parsea el cuerpo JSON y valida los tags; devuelve *domain.ValidationError si algo falla.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewValidationError("body", "cuerpo inválido")
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(fieldPath(fe.Namespace()), "no cumple "+fe.Tag())
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// pathID lee un id de la ruta. Todos los ids son UUID: uno mal formado no existe (ErrNotFound).
func pathID(c *fiber.Ctx, name string) (string, error) {
	u, err := uuid.Parse(c.Params(name))
	if err != nil {
		return "", domain.ErrNotFound
	}
	return u.String(), nil
}

// fieldPath quita el nombre del struct raíz: "CreateTransferRequest.items[0].quantity" → "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
