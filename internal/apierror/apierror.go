// Package apierror provides standardized error response structures for the API
// plus the domain error taxonomy for stock operations. All errors returned to
// clients go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, raw Sheets API errors, etc.).
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FieldsError wraps multiple field validation errors.
type FieldsError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewFields(fields map[string]string) *FieldsError {
	return &FieldsError{Detail: "validation failed", Fields: fields}
}

// ── Domain taxonomy ──────────────────────────────────────────────────────────

// SchemaError is fatal: required columns are missing from the product sheet.
// It aborts startup rather than being surfaced to operators.
type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required columns: %v", e.Sheet, e.Missing)
}

// ValidationError is recoverable: the operator re-enters the value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Stock operations report their row-changed and partial-failure outcomes as
// result records (model.StockOpResult), not as errors: a half-applied mutation
// is a state the operator must see and act on, not an exception to unwind.

// Confirmation store and lookup rejections.
var (
	ErrActionNotFound  = errors.New("confirmation expired or not found")
	ErrUnauthorized    = errors.New("action belongs to a different operator")
	ErrProductNotFound = errors.New("product not found")
)

// IsValidation reports whether err is an operator-recoverable validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
