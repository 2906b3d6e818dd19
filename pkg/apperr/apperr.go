// Package apperr holds the error taxonomy shared by the booking core and its HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a classified error kind. Callers wrap it with fmt.Errorf("...: %w", ...)
// and classify with errors.Is.
type Error struct {
	Code    int
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code int, kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

var (
	ErrValidation        = New(http.StatusBadRequest, "validation_error", "validation failed")
	ErrDatesUnavailable  = New(http.StatusConflict, "dates_unavailable", "selected dates are not available")
	ErrUnauthorized      = New(http.StatusForbidden, "unauthorized", "not authorized for this booking")
	ErrInvalidTransition = New(http.StatusUnprocessableEntity, "invalid_transition", "transition not allowed from current status")
	ErrConflict          = New(http.StatusConflict, "conflict", "booking was modified concurrently, re-read and retry")
	ErrUpstreamPayment   = New(http.StatusBadGateway, "upstream_payment_error", "payment provider request failed")
	ErrNotFound          = New(http.StatusNotFound, "not_found", "resource not found")
	ErrRateLimited       = New(http.StatusTooManyRequests, "rate_limited", "please wait before trying again")
)

// FieldErrors is a validation failure with per-field messages.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *FieldErrors) Unwrap() error {
	return ErrValidation
}

// Validation builds an error that matches ErrValidation and keeps the field map.
func Validation(fields map[string]string) error {
	return &FieldErrors{Fields: fields}
}

// Invalid is a single-field validation failure.
func Invalid(field, message string) error {
	return Validation(map[string]string{field: message})
}

// Kind returns the classified error behind err, or nil when err is unclassified.
func Kind(err error) *Error {
	for _, kind := range []*Error{
		ErrValidation,
		ErrDatesUnavailable,
		ErrUnauthorized,
		ErrInvalidTransition,
		ErrConflict,
		ErrUpstreamPayment,
		ErrNotFound,
		ErrRateLimited,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Fields extracts per-field validation messages, if any.
func Fields(err error) map[string]string {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}
