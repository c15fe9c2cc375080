// Package validator wraps go-playground/validator so request DTOs report
// errors keyed by their JSON field names.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/pkg/domain"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := registerRules(v); err != nil {
		panic(fmt.Sprintf("validator: register rules: %v", err))
	}

	return &Validator{validate: v}
}

// Validate returns nil or an *apperrors.AppError with per-field details.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.InternalError(err)
	}

	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = message(fe)
	}
	return apperrors.ValidationError(details)
}

// FromFieldErrors converts domain rule failures into the API error shape.
func FromFieldErrors(err error) error {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		details := make(map[string]string, len(fe))
		for k, v := range fe {
			details[k] = v
		}
		return apperrors.ValidationError(details)
	}
	return err
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "eqfield":
		return "Does not match " + fe.Param()
	case "username":
		return "Use 3 to 30 letters, digits, dots, dashes or underscores"
	case "phone":
		return "Must be a valid phone number"
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}
