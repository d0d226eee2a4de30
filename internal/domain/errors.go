package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match with errors.Is; returned errors wrap one of
// these with the offending field and value.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrOutOfRange           = fmt.Errorf("%w: value out of range", ErrInvalidInput)
	ErrInvalidGeometry      = errors.New("invalid channel geometry")
	ErrInvalidPipeParameter = errors.New("invalid pipe parameter")
	ErrInvalidCurveNumber   = errors.New("invalid curve number")
	ErrDivisionByZero       = errors.New("division by zero")
)

// ErrorKind maps an engine error to its taxonomy name, e.g. "InvalidGeometryError".
// Returns "InternalError" for errors that did not originate in the engine.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRangeError"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInputError"
	case errors.Is(err, ErrInvalidGeometry):
		return "InvalidGeometryError"
	case errors.Is(err, ErrInvalidPipeParameter):
		return "InvalidPipeParameterError"
	case errors.Is(err, ErrInvalidCurveNumber):
		return "InvalidCurveNumberError"
	case errors.Is(err, ErrDivisionByZero):
		return "DivisionByZeroError"
	default:
		return "InternalError"
	}
}

// IsValidationError reports whether err was caused by caller input rather than
// an internal failure.
func IsValidationError(err error) bool {
	kind := ErrorKind(err)
	return kind != "" && kind != "InternalError"
}
