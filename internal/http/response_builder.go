// Package http exposes the expense service as a JSON API.
//
// This file holds the fluent builder used by every handler to write JSON
// bodies and the mapping from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetab/internal/core"
	"expensetab/internal/importer"
	"expensetab/internal/log"
	"expensetab/internal/services"
	"expensetab/internal/store"
)

// JSONResponseBuilder accumulates status, headers and a payload and writes
// them in one go.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse starts a 200 response with no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the response. A 204 or a nil payload writes no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds an error response with message as its body.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// statusFor maps a service error to a status code. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrExpenseNotFound),
		errors.Is(err, store.ErrCategoryNotFound),
		errors.Is(err, store.ErrBudgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrCategoryInUse),
		errors.Is(err, store.ErrDuplicateCategory),
		errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidExpense),
		errors.Is(err, store.ErrInvalidBudget),
		errors.Is(err, core.ErrEmptyCategoryName),
		errors.Is(err, core.ErrInvalidMonth):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSheetsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, importer.ErrNoFileSelected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorType names the log category of an error status.
func errorType(code int) string {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusServiceUnavailable:
		return log.ErrorTypeConfiguration
	default:
		return log.ErrorTypeInternal
	}
}

// ServiceError builds the response for err. Internal errors are reported
// with a generic message.
func ServiceError(err error) *JSONResponseBuilder {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		return InternalServerError("internal error")
	}
	return ErrorResponse(code, err.Error())
}
