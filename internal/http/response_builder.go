// Package http serves the dashboard JSON API over the finance store.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It keeps status codes, headers and error bodies consistent across handlers.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"moneyflow/internal/api"
	"moneyflow/internal/core"
)

const contentTypeJSON = "application/json; charset=utf-8"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
	err        error
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": contentTypeJSON},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body encodes v as the response body. An encoding failure turns the
// response into a 500.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = err
		return b
	}
	b.body = data
	return b
}

// RawBody sets an already encoded JSON body.
func (b *JSONResponseBuilder) RawBody(data []byte) *JSONResponseBuilder {
	b.body = data
	return b
}

// NoContent drops the body and answers 204.
func (b *JSONResponseBuilder) NoContent() *JSONResponseBuilder {
	b.statusCode = http.StatusNoContent
	b.body = nil
	delete(b.headers, "Content-Type")
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// BadGatewayError creates a 502 Bad Gateway error response.
func BadGatewayError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// TooManyRequestsError creates a 429 Too Many Requests error response.
func TooManyRequestsError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// ErrorFor maps a store or request error to its response. Validation
// failures are 422, missing records 404 and everything else is treated as
// a failing data source.
func ErrorFor(err error) *JSONResponseBuilder {
	var reqErr *requestError
	var apiErr *api.Error
	switch {
	case errors.As(err, &reqErr):
		return BadRequestError(reqErr.Error())
	case core.IsValidation(err):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, core.ErrAlreadyCommitted):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity:
		return UnprocessableEntityError(apiErr.Error())
	default:
		return BadGatewayError("data source unavailable")
	}
}
