package services

import (
	"context"
	"strings"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/event"
)

type CheckupService struct {
	store repositories.Store
}

func NewCheckupService(store repositories.Store) *CheckupService {
	return &CheckupService{store: store}
}

type CheckupInput struct {
	PatientName    string         `json:"patientName"    validate:"required,max=255"`
	Age            int            `json:"age"            validate:"between=0,150"`
	Gender         string         `json:"gender"         validate:"max=20"`
	Contact        string         `json:"contact"        validate:"required,max=100"`
	CheckupType    string         `json:"checkupType"    validate:"required,max=500"`
	CheckupDetails map[string]any `json:"checkupDetails"`
	TotalCost      float64        `json:"totalCost"      validate:"gte=0"`
}

// Create stores the checkup and converts the lead for its contact in one
// transaction: an existing lead becomes Converted with the checkup noted,
// otherwise a Converted lead is created.
func (s *CheckupService) Create(ctx context.Context, in CheckupInput) (models.Checkup, error) {
	if in.TotalCost < 0 {
		return models.Checkup{}, invalid("totalCost", "The totalCost must be greater than or equal to 0.")
	}

	c := models.Checkup{
		PatientName:    strings.TrimSpace(in.PatientName),
		Age:            in.Age,
		Gender:         in.Gender,
		Contact:        strings.TrimSpace(in.Contact),
		CheckupType:    strings.TrimSpace(in.CheckupType),
		CheckupDetails: in.CheckupDetails,
		TotalCost:      in.TotalCost,
	}

	var (
		lead    models.Lead
		created bool
	)
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := tx.Checkups().Create(ctx, &c); err != nil {
			return err
		}

		var err error
		lead, created, err = upsertLead(ctx, tx,
			models.Lead{
				Name:    c.PatientName,
				Contact: c.Contact,
				Status:  models.LeadConverted,
				Notes:   "Auto-generated from Checkup: " + c.CheckupType,
			},
			func(l *models.Lead) {
				l.Status = models.LeadConverted
				l.AppendNote("Checkup done: " + c.CheckupType)
			},
		)
		return err
	})
	if err != nil {
		return models.Checkup{}, err
	}

	event.FireAsync(ctx, EventCheckupCreated, CheckupCreated{
		Checkup:     CheckupSummary{ID: c.ID, CheckupType: c.CheckupType, TotalCost: c.TotalCost},
		LeadID:      lead.ID,
		LeadCreated: created,
	})
	return c, nil
}

func (s *CheckupService) List(ctx context.Context) ([]models.Checkup, error) {
	return s.store.Checkups().List(ctx)
}

// Types returns the test catalogue offered at registration.
func (s *CheckupService) Types() []models.CheckupType {
	out := make([]models.CheckupType, len(models.CheckupCatalog))
	copy(out, models.CheckupCatalog)
	return out
}
