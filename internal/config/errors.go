package config

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid wraps every validation failure.
var ErrConfigInvalid = errors.New("invalid configuration")

// ValidationError reports one rejected setting.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: field %q with value %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// LoadError represents an error reading a configuration file.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load config from %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
