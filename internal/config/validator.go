package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators adds the tags this package's struct tags reference
// beyond validator's built-ins. None are needed beyond validator's built-in
// tag set today; storage DSN shape is checked in validateStorageDSN instead,
// since it depends on the sibling Driver field rather than the DSN alone.
func RegisterCustomValidators(v *validator.Validate) error {
	return nil
}

// validateStorageDSN checks the DSN shape once Driver is known to be sqlite.
// Accepts the in-memory sentinel ":memory:" or any filesystem path without
// embedded NUL bytes; it does not check the path exists, since the sqlite
// driver creates the file on first open.
func validateStorageDSN(cfg *Config) error {
	if cfg.Storage.Driver != "sqlite" {
		return nil
	}
	if cfg.Storage.DSN == ":memory:" {
		return nil
	}
	if strings.ContainsAny(cfg.Storage.DSN, "\x00") {
		return fmt.Errorf("storage.dsn: contains invalid characters")
	}
	return nil
}

// Validate runs struct-tag validation plus the cross-field checks that
// validator's tag language can't express on its own.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterCustomValidators(v); err != nil {
		return fmt.Errorf("registering custom validators: %w", err)
	}

	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := c.validateServiceIDsUnique(); err != nil {
		return err
	}
	if err := validateStorageDSN(c); err != nil {
		return err
	}
	return nil
}

// validateServiceIDsUnique rejects duplicate TAXII 1.x service ids, which
// would silently shadow one another in the dispatch table built from them.
func (c *Config) validateServiceIDsUnique() error {
	seen := make(map[string]bool, len(c.Taxii1x.Services))
	for _, svc := range c.Taxii1x.Services {
		if seen[svc.ID] {
			return fmt.Errorf("taxii1x.services: duplicate service id %q", svc.ID)
		}
		seen[svc.ID] = true
	}
	return nil
}

// formatValidationErrors turns validator's field-path errors into messages
// naming the offending config key by its YAML path rather than its Go
// struct-field name.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatSingleValidationError(fe))
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

func formatSingleValidationError(fe validator.FieldError) string {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required given the selected storage driver", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must have length/value >= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation %q", field, fe.Tag())
	}
}
