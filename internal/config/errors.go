package config

import (
	"errors"
	"fmt"

	"github.com/dshills/taptrack/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidValue indicates a setting holds a value of the wrong type
	// or outside its allowed range.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrFileNotFound indicates an explicitly requested config file is missing.
	ErrFileNotFound = errors.New("config file not found")
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Unwrap returns ErrInvalidValue.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidValue
}

func invalid(path string, value any, format string, args ...any) error {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	}
}
