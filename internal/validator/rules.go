package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,30}$`)
	phoneRe    = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
)

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"username": func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		},
		"phone": func(fl validator.FieldLevel) bool {
			return phoneRe.MatchString(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
