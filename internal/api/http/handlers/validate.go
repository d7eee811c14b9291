package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// bindAndValidate parses the JSON body into dest and runs its validate tags.
func bindAndValidate(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := make(map[string]any, len(errs))
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = validationMessage(fieldErr)
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return apperrors.NewValidationError("validation failed", map[string]any{"error": err.Error()})
}

// fieldPath drops the struct name prefix: "TicketRequest.support[0].agent_id" -> "support[0].agent_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid id"
	case "url":
		return "must be a valid url"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "latitude", "longitude":
		return fmt.Sprintf("must be a valid %s", fe.Tag())
	}
	return "is invalid"
}

// paramID reads a uuid path parameter.
func paramID(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewValidationError("invalid id", map[string]any{"field": name})
	}
	return raw, nil
}

func parseQueryInt(c *fiber.Ctx, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("query parameter must be numeric", map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, apperrors.NewValidationError("query parameter out of range", map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func parseQueryFloat(c *fiber.Ctx, key string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(c.Query(key)), 64)
	if err != nil {
		return 0, apperrors.NewValidationError("query parameter must be a number", map[string]any{"field": key})
	}
	return value, nil
}

func parseQueryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("query parameter must be a boolean", map[string]any{"field": key})
	}
	return &value, nil
}

// parseQueryDate accepts YYYY-MM-DD or RFC3339.
func parseQueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": key, "format": time.DateOnly})
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}
