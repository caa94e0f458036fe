// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Staffdesk.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and the uniform JSON response envelope.

Architecture:

  - AppError: A tagged error carrying a machine-readable Code, a client-safe message,
    the HTTP status and optional per-field validation errors.
  - Codes: A closed enumeration shared with the response envelope.
  - Mapping: Every code maps to exactly one HTTP status.

Every error that leaves the service layer should be an [AppError] so that
[respond.Error] can translate it without per-endpoint formatting logic.
*/
package apperr

import (
	"errors"
	"net/http"
)

// # Response Codes

// Code is the machine-readable response code carried by every envelope.
type Code string

const (
	CodeSuccess         Code = "SUCCESS"
	CodeError           Code = "ERROR"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeServerError     Code = "SERVER_ERROR"
	CodeConflict        Code = "CONFLICT"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
)

// Status returns the HTTP status code bound to c.
func (c Code) Status() int {
	switch c {
	case CodeSuccess:
		return http.StatusOK
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// # Error Type

// FieldErrors maps a field name to the failed rules and their messages.
//
// Example:
//
//	{"password": {"minLength": "Must be at least 8 characters long"}}
type FieldErrors map[string]map[string]string

// Add records a failure of rule on field.
func (f FieldErrors) Add(field, rule, message string) {
	rules, ok := f[field]
	if !ok {
		rules = make(map[string]string)
		f[field] = rules
	}
	rules[rule] = message
}

// AppError is the canonical error type for the Staffdesk API.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is the machine-readable identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code Code `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Fields holds per-field failures for VALIDATION_ERROR responses.
	Fields FieldErrors `json:"errors,omitempty"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// New builds an [AppError] whose status is derived from code.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: code.Status()}
}

// # Client Errors (4xx)

// BadRequest creates a generic 400 [AppError].
func BadRequest(msg string) *AppError {
	return New(CodeError, msg)
}

// Validation creates a 422 [AppError] carrying per-field failures.
func Validation(msg string, fields FieldErrors) *AppError {
	err := New(CodeValidation, msg)
	err.Fields = fields
	return err
}

// NotFound creates a 404 [AppError].
//
// Example:
//
//	apperr.NotFound("Employee not found")
func NotFound(msg string) *AppError {
	return New(CodeNotFound, msg)
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return New(CodeUnauthorized, msg)
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return New(CodeForbidden, msg)
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return New(CodeConflict, msg)
}

// TooManyRequests creates a 429 [AppError].
func TooManyRequests(msg string) *AppError {
	return New(CodeTooManyRequests, msg)
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	err := New(CodeServerError, "An unexpected error occurred")
	err.Cause = cause
	return err
}

// ServiceUnavailable creates a 503 [AppError] for a backing store that cannot be reached.
func ServiceUnavailable(msg string, cause error) *AppError {
	return &AppError{
		Code:       CodeServerError,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
