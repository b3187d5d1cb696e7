package controllers

import (
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

type CheckupController struct {
	service *services.CheckupService
}

func NewCheckupController(service *services.CheckupService) *CheckupController {
	return &CheckupController{service: service}
}

func (cc *CheckupController) Index(c *ctx.Context) {
	list, err := cc.service.List(c.Context())
	if err != nil {
		fail(c, err, Messages{Failure: "Error fetching checkups"})
		return
	}
	c.Success(list)
}

func (cc *CheckupController) Store(c *ctx.Context) {
	var in services.CheckupInput
	if !c.BindJSON(&in) {
		return
	}

	checkup, err := cc.service.Create(c.Context(), in)
	if err != nil {
		fail(c, err, Messages{Failure: "Error creating checkup"})
		return
	}
	c.Created(checkup)
}

func (cc *CheckupController) Types(c *ctx.Context) {
	c.Success(cc.service.Types())
}
