// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every response (Success or Error) follows the same JSON envelope:
//
//	{"success": true, "code": "SUCCESS", "message": "...", "data": {...}, "timestamp": "..."}
//
// Error responses additionally carry an "errors" object when there are field failures.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/staffdesk/internal/platform/apperr"
	"github.com/taibuivan/staffdesk/internal/platform/ctxutil"
	"github.com/taibuivan/staffdesk/pkg/pagination"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success   bool               `json:"success"`
	Code      apperr.Code        `json:"code"`
	Message   string             `json:"message"`
	Data      any                `json:"data"`
	Errors    apperr.FieldErrors `json:"errors,omitempty"`
	Timestamp string             `json:"timestamp"`
}

// Page is the data payload of paginated list responses.
type Page struct {
	Items any             `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// now is swapped in tests to freeze the envelope timestamp.
var now = time.Now

// emptyData is serialized as {} when a handler has nothing to return.
var emptyData = struct{}{}

// JSON writes payload with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Success writes a success envelope with an explicit status code.
func Success(writer http.ResponseWriter, statusCode int, message string, data any) {
	if data == nil {
		data = emptyData
	}
	JSON(writer, statusCode, Envelope{
		Success:   true,
		Code:      apperr.CodeSuccess,
		Message:   message,
		Data:      data,
		Timestamp: now().UTC().Format(time.RFC3339),
	})
}

// OK writes a 200 success envelope.
func OK(writer http.ResponseWriter, message string, data any) {
	Success(writer, http.StatusOK, message, data)
}

// Created writes a 201 success envelope.
func Created(writer http.ResponseWriter, message string, data any) {
	Success(writer, http.StatusCreated, message, data)
}

// Paginated writes a 200 success envelope whose data is a [Page].
func Paginated(writer http.ResponseWriter, message string, items any, metadata pagination.Meta) {
	OK(writer, message, Page{Items: items, Meta: metadata})
}

/*
Error converts any Go error into the standard error envelope.

Errors that are not an [apperr.AppError] become a generic 500 so internal
details never reach the client. All 5xx causes are logged at ERROR.
*/
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	appError := apperr.As(err)
	if appError == nil {
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", string(appError.Code)),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	Failure(writer, appError)
}

// Failure writes the error envelope for appError without logging.
func Failure(writer http.ResponseWriter, appError *apperr.AppError) {
	JSON(writer, appError.HTTPStatus, Envelope{
		Success:   false,
		Code:      appError.Code,
		Message:   appError.Message,
		Data:      emptyData,
		Errors:    appError.Fields,
		Timestamp: now().UTC().Format(time.RFC3339),
	})
}
