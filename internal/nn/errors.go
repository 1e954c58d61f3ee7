package nn

import (
	"errors"
	"fmt"
)

// Sentinel errors. Forward-time shape violations panic with an error wrapping
// ErrShapeMismatch so callers that recover can match it with errors.Is.
var (
	// ErrShapeMismatch reports an input whose shape does not fit the module.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidConfig reports a constructor argument outside its domain.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrUnsupported reports a recognized but unimplemented option.
	ErrUnsupported = errors.New("unsupported")
)

// panicShape panics with an ErrShapeMismatch-wrapping error prefixed by op.
func panicShape(op, format string, args ...any) {
	panic(fmt.Errorf("%s: %w: %s", op, ErrShapeMismatch, fmt.Sprintf(format, args...)))
}

// panicConfig panics with an ErrInvalidConfig-wrapping error prefixed by op.
func panicConfig(op, format string, args ...any) {
	panic(fmt.Errorf("%s: %w: %s", op, ErrInvalidConfig, fmt.Sprintf(format, args...)))
}
