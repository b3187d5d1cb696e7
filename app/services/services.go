// Package services holds the business rules. Controllers translate HTTP to
// service calls; services talk to a repositories.Store and fire domain
// events after their writes commit.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLastAdmin blocks deleting the only remaining admin.
	ErrLastAdmin = errors.New("cannot delete the last admin")
)

// ValidationError carries field-level messages that become a 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Domain events fired after a write commits. MedicinesChanged is
// synchronous so the cached list is gone before the response is written;
// the rest go through event.FireAsync.
const (
	EventMedicinesChanged  = "medicines.changed"
	EventMedicinesImported = "medicines.imported"
	EventCheckupCreated    = "checkup.created"
	EventAppointmentBooked = "appointment.booked"
)

// CheckupCreated is the payload of EventCheckupCreated. LeadCreated tells
// whether the conversion inserted a new lead or updated an existing one.
type CheckupCreated struct {
	Checkup     CheckupSummary
	LeadID      string
	LeadCreated bool
}

// CheckupSummary is the part of a checkup listeners need.
type CheckupSummary struct {
	ID          string
	CheckupType string
	TotalCost   float64
}

// MedicinesImported is the payload of EventMedicinesImported.
type MedicinesImported struct {
	Count   int
	Archive string
}

// AppointmentBooked is the payload of EventAppointmentBooked.
type AppointmentBooked struct {
	LeadID  string
	Created bool
}
