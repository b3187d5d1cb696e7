// Package jobs holds the background tasks the server schedules.
package jobs

import (
	"context"
	"time"

	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
	"github.com/shashiranjanraj/medstore/pkg/schedule"
)

// StockReport is the result of one inventory scan.
type StockReport struct {
	LowStock     []string
	Expired      []string
	ExpiringSoon []string
}

// StockWatch scans the catalogue for low stock and near expiry.
type StockWatch struct {
	store    repositories.Store
	lowStock int
	window   time.Duration
	now      func() time.Time
}

func NewStockWatch(store repositories.Store, lowStock, expiryDays int) *StockWatch {
	return &StockWatch{
		store:    store,
		lowStock: lowStock,
		window:   time.Duration(expiryDays) * 24 * time.Hour,
		now:      time.Now,
	}
}

// Scan lists medicine names by condition and updates the stock gauges.
func (w *StockWatch) Scan(ctx context.Context) (StockReport, error) {
	meds, err := w.store.Medicines().List(ctx, models.MedicineFilter{})
	if err != nil {
		return StockReport{}, err
	}

	now := w.now().UTC()
	var rep StockReport
	for _, m := range meds {
		if m.LowStock(w.lowStock) {
			rep.LowStock = append(rep.LowStock, m.Name)
		}
		if m.ExpiryDate == nil {
			continue
		}
		switch {
		case m.ExpiryDate.Before(now):
			rep.Expired = append(rep.Expired, m.Name)
		case m.ExpiryDate.Before(now.Add(w.window)):
			rep.ExpiringSoon = append(rep.ExpiringSoon, m.Name)
		}
	}

	metrics.MedicinesLowStock.Set(float64(len(rep.LowStock)))
	metrics.MedicinesExpiring.WithLabelValues("expired").Set(float64(len(rep.Expired)))
	metrics.MedicinesExpiring.WithLabelValues("soon").Set(float64(len(rep.ExpiringSoon)))
	return rep, nil
}

// Run is the scheduled form of Scan: it logs instead of returning.
func (w *StockWatch) Run(ctx context.Context) {
	rep, err := w.Scan(ctx)
	if err != nil {
		logger.Error("stock watch: scan failed", "error", err)
		return
	}
	if len(rep.LowStock)+len(rep.Expired)+len(rep.ExpiringSoon) == 0 {
		return
	}
	logger.Warn("stock watch",
		"low_stock", rep.LowStock,
		"expired", rep.Expired,
		"expiring_soon", rep.ExpiringSoon,
	)
}

// Schedule registers Run on s. A zero interval leaves s untouched.
func (w *StockWatch) Schedule(s *schedule.Scheduler, every time.Duration) {
	if every <= 0 {
		return
	}
	s.Every(every).Name("stock-watch").WithoutOverlapping().Run(w.Run)
}
