package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/event"
)

type LeadService struct {
	store repositories.Store
}

func NewLeadService(store repositories.Store) *LeadService {
	return &LeadService{store: store}
}

type LeadInput struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Contact string `json:"contact" validate:"required,max=255"`
	Status  string `json:"status"  validate:"nullable,in=New,Contacted,Converted,Lost"`
	Notes   string `json:"notes"`
}

// LeadUpdate merges only the fields present in the body.
type LeadUpdate struct {
	Name    *string `json:"name"    validate:"min=1,max=255"`
	Contact *string `json:"contact" validate:"min=1,max=255"`
	Status  *string `json:"status"  validate:"in=New,Contacted,Converted,Lost"`
	Notes   *string `json:"notes"`
}

type AppointmentInput struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Contact string `json:"contact" validate:"required,max=255"`
	Reason  string `json:"reason"  validate:"max=1000"`
	Date    string `json:"date"    validate:"max=100"`
}

func (s *LeadService) List(ctx context.Context, status string) ([]models.Lead, error) {
	if status != "" && !models.ValidLeadStatus(status) {
		return nil, invalid("status", "The selected status is invalid.")
	}
	return s.store.Leads().List(ctx, status)
}

func (s *LeadService) Get(ctx context.Context, id string) (models.Lead, error) {
	return s.store.Leads().FindByID(ctx, id)
}

// Create returns repositories.ErrDuplicate when a lead already owns the
// contact.
func (s *LeadService) Create(ctx context.Context, in LeadInput) (models.Lead, error) {
	if in.Status == "" {
		in.Status = models.LeadNew
	}
	if !models.ValidLeadStatus(in.Status) {
		return models.Lead{}, invalid("status", "The selected status is invalid.")
	}

	l := models.Lead{
		Name:       strings.TrimSpace(in.Name),
		Contact:    strings.TrimSpace(in.Contact),
		ContactKey: models.ContactKey(in.Contact),
		Status:     in.Status,
		Notes:      in.Notes,
	}
	if l.ContactKey == "" {
		return models.Lead{}, invalid("contact", "The contact field is required.")
	}
	if err := s.store.Leads().Insert(ctx, &l); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

func (s *LeadService) Update(ctx context.Context, id string, in LeadUpdate) (models.Lead, error) {
	if in.Status != nil && !models.ValidLeadStatus(*in.Status) {
		return models.Lead{}, invalid("status", "The selected status is invalid.")
	}
	errs := map[string]string{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		errs["name"] = "The name field is required."
	}
	if in.Contact != nil && models.ContactKey(*in.Contact) == "" {
		errs["contact"] = "The contact field is required."
	}
	if len(errs) > 0 {
		return models.Lead{}, &ValidationError{Fields: errs}
	}

	var out models.Lead
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		l, err := tx.Leads().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			l.Name = strings.TrimSpace(*in.Name)
		}
		if in.Contact != nil {
			l.Contact = strings.TrimSpace(*in.Contact)
			l.ContactKey = models.ContactKey(l.Contact)
		}
		if in.Status != nil {
			l.Status = *in.Status
		}
		if in.Notes != nil {
			l.Notes = *in.Notes
		}
		if err := tx.Leads().Update(ctx, &l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

func (s *LeadService) Delete(ctx context.Context, id string) error {
	return s.store.Leads().Delete(ctx, id)
}

// BookAppointment records a public appointment request against the lead
// for the contact, creating a New lead when none exists. An existing lead
// keeps its status and gets the request appended to its notes.
func (s *LeadService) BookAppointment(ctx context.Context, in AppointmentInput) (models.Lead, error) {
	note := fmt.Sprintf("Online Appointment Request. Reason: %s. Preferred Date: %s", in.Reason, in.Date)

	var (
		lead    models.Lead
		created bool
	)
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		lead, created, err = upsertLead(ctx, tx,
			models.Lead{Name: strings.TrimSpace(in.Name), Contact: strings.TrimSpace(in.Contact), Status: models.LeadNew, Notes: note},
			func(l *models.Lead) { l.AppendNote(note) },
		)
		return err
	})
	if err != nil {
		return models.Lead{}, err
	}

	event.FireAsync(ctx, EventAppointmentBooked, AppointmentBooked{LeadID: lead.ID, Created: created})
	return lead, nil
}

// upsertLead inserts fresh when no lead owns its contact key, otherwise it
// applies update to the existing lead. A concurrent insert that wins the
// race on the unique key sends this call down the update path.
func upsertLead(ctx context.Context, tx repositories.Store, fresh models.Lead, update func(*models.Lead)) (models.Lead, bool, error) {
	fresh.ContactKey = models.ContactKey(fresh.Contact)
	if fresh.ContactKey == "" {
		return models.Lead{}, false, invalid("contact", "The contact field is required.")
	}

	existing, err := tx.Leads().FindByContactKey(ctx, fresh.ContactKey)
	if errors.Is(err, repositories.ErrNotFound) {
		err = tx.Leads().Insert(ctx, &fresh)
		if err == nil {
			return fresh, true, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return models.Lead{}, false, err
		}
		existing, err = tx.Leads().FindByContactKey(ctx, fresh.ContactKey)
	}
	if err != nil {
		return models.Lead{}, false, err
	}

	update(&existing)
	if err := tx.Leads().Update(ctx, &existing); err != nil {
		return models.Lead{}, false, err
	}
	return existing, false, nil
}
