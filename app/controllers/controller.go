// Package controllers adapts HTTP requests to service calls and maps
// service errors onto the JSON envelope.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

// Messages names the responses for one resource. Empty fields fall back to
// generic texts.
type Messages struct {
	NotFound  string
	Duplicate string
	Failure   string
}

// fail writes the response for err. Unknown errors are logged and reported
// as a 500 carrying only m.Failure.
func fail(c *ctx.Context, err error, m Messages) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.ValidationError(ve.Fields)
	case errors.Is(err, repositories.ErrNotFound):
		c.NotFound(m.NotFound)
	case errors.Is(err, repositories.ErrDuplicate):
		c.Conflict(orDefault(m.Duplicate, "Resource already exists"))
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Error(http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, services.ErrLastAdmin):
		c.Conflict("Cannot delete the last admin")
	default:
		c.ServerError(err, orDefault(m.Failure, "Internal server error"))
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
