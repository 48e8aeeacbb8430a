package config

import "fmt"

// ConfigError reports a setup-time configuration problem. Widgets refuse to
// start on a ConfigError instead of degrading at poll time.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
