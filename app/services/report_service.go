package services

import (
	"context"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
)

type ReportService struct {
	store    repositories.Store
	lowStock int
}

func NewReportService(store repositories.Store, lowStock int) *ReportService {
	return &ReportService{store: store, lowStock: lowStock}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type Summary struct {
	MedicineCount int           `json:"medicineCount"`
	LowStockCount int           `json:"lowStockCount"`
	CheckupCount  int           `json:"checkupCount"`
	Revenue       float64       `json:"revenue"`
	LeadsByStatus []StatusCount `json:"leadsByStatus"`
}

// Summary aggregates the dashboard figures. Every lead status is listed,
// including those with no leads.
func (s *ReportService) Summary(ctx context.Context) (Summary, error) {
	var out Summary

	meds, err := s.store.Medicines().List(ctx, models.MedicineFilter{})
	if err != nil {
		return Summary{}, err
	}
	out.MedicineCount = len(meds)
	for _, m := range meds {
		if m.LowStock(s.lowStock) {
			out.LowStockCount++
		}
	}

	checkups, err := s.store.Checkups().List(ctx)
	if err != nil {
		return Summary{}, err
	}
	out.CheckupCount = len(checkups)
	for _, c := range checkups {
		out.Revenue += c.TotalCost
	}

	leads, err := s.store.Leads().List(ctx, "")
	if err != nil {
		return Summary{}, err
	}
	counts := map[string]int{}
	for _, l := range leads {
		counts[l.Status]++
	}
	for _, st := range models.LeadStatuses {
		out.LeadsByStatus = append(out.LeadsByStatus, StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func (s *ReportService) Medicines(ctx context.Context, query string, lowStock bool) ([]models.Medicine, error) {
	return s.store.Medicines().List(ctx, models.MedicineFilter{Query: query, LowStock: lowStock, Below: s.lowStock})
}

func (s *ReportService) Checkups(ctx context.Context) ([]models.Checkup, error) {
	return s.store.Checkups().List(ctx)
}

func (s *ReportService) Leads(ctx context.Context, status string) ([]models.Lead, error) {
	return s.store.Leads().List(ctx, status)
}
