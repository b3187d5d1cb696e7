package controllers

import (
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

var authMessages = Messages{NotFound: "User not found", Failure: "Login failed"}

func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}

	res, err := ac.service.Login(c.Context(), in)
	if err != nil {
		fail(c, err, authMessages)
		return
	}
	c.Success(res)
}

func (ac *AuthController) Me(c *ctx.Context) {
	u, err := ac.service.Me(c.Context(), c.UserID())
	if err != nil {
		fail(c, err, authMessages)
		return
	}
	c.Success(u)
}

func (ac *AuthController) Seed(c *ctx.Context) {
	created, err := ac.service.Seed(c.Context())
	if err != nil {
		fail(c, err, Messages{Failure: "Error seeding users"})
		return
	}
	if !created {
		c.Message("Users already seeded", nil)
		return
	}
	c.Created(nil, "Users seeded successfully")
}
