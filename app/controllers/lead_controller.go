package controllers

import (
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

type LeadController struct {
	service *services.LeadService
}

func NewLeadController(service *services.LeadService) *LeadController {
	return &LeadController{service: service}
}

var leadMessages = Messages{
	NotFound:  "Lead not found",
	Duplicate: "A lead with this contact already exists",
	Failure:   "Error managing leads",
}

func (lc *LeadController) Index(c *ctx.Context) {
	leads, err := lc.service.List(c.Context(), c.Query("status"))
	if err != nil {
		fail(c, err, leadMessages)
		return
	}
	c.Success(leads)
}

func (lc *LeadController) Store(c *ctx.Context) {
	var in services.LeadInput
	if !c.BindJSON(&in) {
		return
	}

	lead, err := lc.service.Create(c.Context(), in)
	if err != nil {
		fail(c, err, leadMessages)
		return
	}
	c.Created(lead)
}

func (lc *LeadController) Update(c *ctx.Context) {
	var in services.LeadUpdate
	if !c.BindJSON(&in) {
		return
	}

	lead, err := lc.service.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err, leadMessages)
		return
	}
	c.Success(lead)
}

func (lc *LeadController) Destroy(c *ctx.Context) {
	if err := lc.service.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err, leadMessages)
		return
	}
	c.Message("Lead deleted", nil)
}

// Appointment is the public booking form. The response carries the message
// next to the lead so the form can show it.
func (lc *LeadController) Appointment(c *ctx.Context) {
	var in services.AppointmentInput
	if !c.BindJSON(&in) {
		return
	}

	lead, err := lc.service.BookAppointment(c.Context(), in)
	if err != nil {
		fail(c, err, Messages{Failure: "Error booking appointment"})
		return
	}
	c.Created(map[string]interface{}{
		"message": "Appointment booked successfully",
		"lead":    lead,
	}, "Appointment booked successfully")
}
