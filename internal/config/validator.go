package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their config keys instead of Go names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation error: %w", err)
		}
		for _, e := range verrs {
			problems = append(problems, describe(e))
		}
	}
	if c.Learning.Backend == "sqlite" && strings.TrimSpace(c.DB.Path) == "" {
		problems = append(problems, "db.path is required when learning.backend is 'sqlite'")
	}
	if c.Learning.Backend == "json" && strings.TrimSpace(c.Data.Learned) == "" {
		problems = append(problems, "data.learned is required when learning.backend is 'json'")
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// describe renders e against its config key, e.g. "learning.batch_size".
func describe(e validator.FieldError) string {
	_, key, _ := strings.Cut(e.Namespace(), ".")
	switch e.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", key, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s, got %v", key, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", key, e.Param(), e.Value())
	}
	return fmt.Sprintf("%s is not a valid %s, got %v", key, e.Tag(), e.Value())
}
