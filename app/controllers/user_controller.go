package controllers

import (
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
)

type UserController struct {
	service *services.UserService
}

func NewUserController(service *services.UserService) *UserController {
	return &UserController{service: service}
}

var userMessages = Messages{NotFound: "User not found", Duplicate: "User already exists", Failure: "Error managing users"}

func (uc *UserController) Index(c *ctx.Context) {
	users, err := uc.service.List(c.Context())
	if err != nil {
		fail(c, err, userMessages)
		return
	}
	c.Success(users)
}

func (uc *UserController) Store(c *ctx.Context) {
	var in services.CreateUserInput
	if !c.BindJSON(&in) {
		return
	}

	u, err := uc.service.Create(c.Context(), in)
	if err != nil {
		fail(c, err, userMessages)
		return
	}
	c.Created(u, "User created successfully")
}

func (uc *UserController) Destroy(c *ctx.Context) {
	if err := uc.service.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err, userMessages)
		return
	}
	c.Message("User deleted successfully", nil)
}

func (uc *UserController) UpdatePassword(c *ctx.Context) {
	var in services.PasswordInput
	if !c.BindJSON(&in) {
		return
	}

	if err := uc.service.UpdatePassword(c.Context(), c.Param("id"), in); err != nil {
		fail(c, err, userMessages)
		return
	}
	c.Message("Password updated successfully", nil)
}
