// Package ctx provides a request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding, the
// authenticated user and the JSON envelope:
//
//	func (mc *MedicineController) Update(c *ctx.Context) {
//	    var in services.MedicineUpdate
//	    if !c.BindJSON(&in) {
//	        return
//	    }
//	    ...
//	    c.Success(med)
//	}
//
//	router.Put("/medicines/{id}", "medicines.update", ctx.Wrap(mc.Update))
package ctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/medstore/pkg/bind"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/middleware"
	"github.com/shashiranjanraj/medstore/pkg/response"
	"github.com/shashiranjanraj/medstore/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/leads/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// QueryBool reads flags such as ?lowStock=1 or ?lowStock=true.
func (c *Context) QueryBool(key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

func (c *Context) ClientIP() string {
	return middleware.ClientIP(c.R)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Log returns the request-scoped logger.
func (c *Context) Log() *slog.Logger { return logger.WithCtx(c.R.Context()) }

// UserID and Role read the claims set by middleware.Auth.
func (c *Context) UserID() string {
	id, _ := middleware.UserIDFromCtx(c.R)
	return id
}

func (c *Context) Role() string {
	role, _ := middleware.RoleFromCtx(c.R)
	return role
}

// FormFile reads one uploaded file from a multipart body capped at maxBytes.
// The caller must close the returned file.
func (c *Context) FormFile(field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxBytes)
	if err := c.R.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, fmt.Errorf("parse upload: %w", err)
	}
	return c.R.FormFile(field)
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On a decode error it sends 400, on validation failure 422, and returns
// false; the handler must return without writing.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) SetHeader(key, value string) {
	c.W.Header().Set(key, value)
}

// Success sends a 200 envelope with data.
func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

// Message sends a 200 envelope with a message and optional data.
func (c *Context) Message(message string, data any) {
	c.status = http.StatusOK
	response.Message(c.W, message, data)
}

// Created sends a 201 envelope.
func (c *Context) Created(data any, message ...string) {
	c.status = http.StatusCreated
	response.Created(c.W, data, message...)
}

// Error sends an error envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusUnprocessableEntity
	response.ValidationError(c.W, errs)
}

func (c *Context) NotFound(message ...string) {
	c.status = http.StatusNotFound
	response.NotFound(c.W, message...)
}

func (c *Context) Conflict(message string) {
	c.Error(http.StatusConflict, message)
}

// ServerError logs err with the request id and sends a 500 carrying only
// message.
func (c *Context) ServerError(err error, message string) {
	c.Log().Error(message, "error", err, "method", c.R.Method, "path", c.R.URL.Path)
	c.status = http.StatusInternalServerError
	response.ServerError(c.W, message)
}

// Text writes a plain-text response.
func (c *Context) Text(code int, body string) {
	c.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.W.WriteHeader(code)
	c.status = code
	_, _ = io.WriteString(c.W, body)
}

// Attachment streams a download. write is called once the headers are set.
func (c *Context) Attachment(filename, contentType string, write func(io.Writer) error) error {
	c.W.Header().Set("Content-Type", contentType)
	c.W.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.W.WriteHeader(http.StatusOK)
	c.status = http.StatusOK
	return write(c.W)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
