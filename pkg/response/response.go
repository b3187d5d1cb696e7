// Package response writes the JSON envelope every endpoint answers with:
//
//	{"status": 200, "message": "...", "data": ..., "errors": {...}}
package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/medstore/pkg/logger"
)

// Envelope is exported so tests and clients can decode responses.
type Envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// fallback is sent when an envelope cannot be encoded.
var fallback = []byte(`{"status":500,"message":"Internal Server Error"}` + "\n")

// Write sends body with status as JSON. The body is encoded before any
// header goes out, so an unencodable payload becomes a 500.
func Write(w http.ResponseWriter, status int, body Envelope) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logger.Error("response: encode failed", "status", status, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data})
}

// Message sends a 200 with a human-readable message and optional data.
func Message(w http.ResponseWriter, message string, data interface{}) {
	Write(w, http.StatusOK, Envelope{Status: http.StatusOK, Message: message, Data: data})
}

// Created sends a 201 JSON response with data and an optional message.
func Created(w http.ResponseWriter, data interface{}, message ...string) {
	body := Envelope{Status: http.StatusCreated, Data: data}
	if len(message) > 0 {
		body.Message = message[0]
	}
	Write(w, http.StatusCreated, body)
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Envelope{Status: status, Message: message})
}

// ValidationError sends a 422 with field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, http.StatusUnprocessableEntity, Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message ...string) {
	Error(w, http.StatusUnauthorized, first(message, "Unauthorized"))
}

func Forbidden(w http.ResponseWriter, message ...string) {
	Error(w, http.StatusForbidden, first(message, "Forbidden"))
}

func NotFound(w http.ResponseWriter, message ...string) {
	Error(w, http.StatusNotFound, first(message, "Not found"))
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, "Too Many Requests")
}

// ServerError hides the cause; callers log it with the request id.
func ServerError(w http.ResponseWriter, message ...string) {
	Error(w, http.StatusInternalServerError, first(message, "Internal Server Error"))
}

func first(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
