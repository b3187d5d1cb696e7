// Package listeners subscribes the side effects of domain events: business
// counters and cache invalidation.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/cache"
	"github.com/shashiranjanraj/medstore/pkg/event"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
)

// Register wires every listener. Call once at boot, after the cache is up.
func Register(c *cache.Cache) {
	event.Listen(services.EventMedicinesChanged, func(ctx context.Context, _ interface{}) {
		if err := c.Flush(ctx, services.MedicineCachePrefix); err != nil {
			logger.WithCtx(ctx).Warn("cache: flush medicines failed", "error", err)
		}
	})

	event.Listen(services.EventMedicinesImported, func(ctx context.Context, p interface{}) {
		imp, ok := p.(services.MedicinesImported)
		if !ok {
			return
		}
		metrics.MedicinesImported.Add(float64(imp.Count))
		logger.WithCtx(ctx).Info("medicines imported", "count", imp.Count, "archive", imp.Archive)
	})

	event.Listen(services.EventCheckupCreated, func(_ context.Context, p interface{}) {
		ev, ok := p.(services.CheckupCreated)
		if !ok {
			return
		}
		metrics.CheckupsCreated.Inc()
		metrics.CheckupRevenue.Add(ev.Checkup.TotalCost)
		outcome := "updated"
		if ev.LeadCreated {
			outcome = "created"
		}
		metrics.LeadsConverted.WithLabelValues(outcome).Inc()
	})

	event.Listen(services.EventAppointmentBooked, func(ctx context.Context, p interface{}) {
		ev, ok := p.(services.AppointmentBooked)
		if !ok {
			return
		}
		metrics.AppointmentsBooked.Inc()
		logger.WithCtx(ctx).Info("appointment booked", "lead_id", ev.LeadID, "new_lead", ev.Created)
	})
}
