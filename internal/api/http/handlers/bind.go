package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// Binder decodes request bodies and runs struct validation.
type Binder struct {
	Validate *validator.Validate
}

// NewBinder returns a binder whose errors are keyed by JSON field names.
func NewBinder() *Binder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Binder{Validate: v}
}

// Bind parses the JSON body into dst and validates it.
func (b *Binder) Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := b.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.NewValidationError("invalid request", nil)
		}
		details := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return apperrors.NewValidationError("invalid request", details)
	}
	return nil
}
