package tco

import (
	"errors"
	"fmt"
)

const (
	CodeValidation      = "validation"
	CodeDataIntegrity   = "data_integrity"
	CodeInvalidRange    = "invalid_range"
	CodeUndefinedMetric = "undefined_metric"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal"
)

// Error is the coded error surfaced across the engine boundary.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func StatusForCode(code string) int {
	switch code {
	case CodeValidation, CodeInvalidRange:
		return 400
	case CodeNotFound:
		return 404
	case CodeDataIntegrity, CodeUndefinedMetric:
		return 422
	default:
		return 500
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: StatusForCode(code)}
}

func NewNotFoundError(what, id string) error {
	return newError(CodeNotFound, fmt.Sprintf("%s %q not found", what, id))
}

func NewInternalError(message string) error {
	return newError(CodeInternal, message)
}

// ValidationError rejects a structurally invalid call before any model runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", CodeValidation, e.Field, e.Reason)
}

func (e *ValidationError) Coded() *Error {
	return newError(CodeValidation, e.Field+": "+e.Reason)
}

// DataIntegrityError reports missing or malformed catalog data. The engine
// recovers from it with a zero-filled, degraded result.
type DataIntegrityError struct {
	VendorID string
	Reason   string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("%s: vendor %q: %s", CodeDataIntegrity, e.VendorID, e.Reason)
}

func (e *DataIntegrityError) Coded() *Error {
	return newError(CodeDataIntegrity, fmt.Sprintf("vendor %q: %s", e.VendorID, e.Reason))
}

// InvalidRangeError rejects a sensitivity sweep before any sample is computed.
type InvalidRangeError struct {
	Variable Variable
	Min      float64
	Max      float64
	Steps    int
	Reason   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s: %s [%g, %g] steps=%d: %s", CodeInvalidRange, e.Variable, e.Min, e.Max, e.Steps, e.Reason)
}

func (e *InvalidRangeError) Coded() *Error {
	return newError(CodeInvalidRange, fmt.Sprintf("%s [%g, %g] steps=%d: %s", e.Variable, e.Min, e.Max, e.Steps, e.Reason))
}

// AsError maps any engine error onto the coded form used by transports.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var coded interface{ Coded() *Error }
	if errors.As(err, &coded) {
		return coded.Coded()
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(CodeInternal, err.Error())
}
