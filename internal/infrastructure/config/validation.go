package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks configuration structs against their validate tags and
// names failing fields by config key, e.g. "warehouse.queue_capacity"
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator keyed on mapstructure tags
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(mapstructureName)
	return &Validator{validate: v}
}

func mapstructureName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

// Validate runs every tag rule on i and joins the failures into one error
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	lines := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		// Namespace starts with the root type ("Config."); keys don't
		_, key, found := strings.Cut(fe.Namespace(), ".")
		if !found {
			key = fe.Namespace()
		}
		lines = append(lines, fmt.Sprintf("%s: fails %q (got %v)", key, fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(lines, "\n  "))
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
