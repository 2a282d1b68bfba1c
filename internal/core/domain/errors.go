package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrTemporary          = errors.New("temporary failure")
	ErrStepTimeout        = errors.New("step timeout")
	ErrPipelineDisabled   = errors.New("pipeline disabled")
	ErrConfigurationError = errors.New("configuration error")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsTerminal reports whether the failure is deterministic: repeating the
// operation with the same input cannot succeed, so retrying it only
// burns attempts.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrConfigurationError)
}
