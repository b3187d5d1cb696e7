package listeners

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/event"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
)

func TestListenersCountDomainEvents(t *testing.T) {
	event.Flush()
	t.Cleanup(event.Flush)
	Register(nil)
	ctx := context.Background()

	checkups := testutil.ToFloat64(metrics.CheckupsCreated)
	revenue := testutil.ToFloat64(metrics.CheckupRevenue)
	created := testutil.ToFloat64(metrics.LeadsConverted.WithLabelValues("created"))
	imported := testutil.ToFloat64(metrics.MedicinesImported)
	booked := testutil.ToFloat64(metrics.AppointmentsBooked)

	event.Fire(ctx, services.EventCheckupCreated, services.CheckupCreated{
		Checkup:     services.CheckupSummary{ID: "c1", CheckupType: "CBC", TotalCost: 15},
		LeadCreated: true,
	})
	event.Fire(ctx, services.EventMedicinesImported, services.MedicinesImported{Count: 3})
	event.Fire(ctx, services.EventAppointmentBooked, services.AppointmentBooked{LeadID: "l1"})
	event.Fire(ctx, services.EventMedicinesChanged, "m1")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckupsCreated)-checkups)
	assert.Equal(t, 15.0, testutil.ToFloat64(metrics.CheckupRevenue)-revenue)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LeadsConverted.WithLabelValues("created"))-created)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.MedicinesImported)-imported)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AppointmentsBooked)-booked)
}
