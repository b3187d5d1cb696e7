// Package routes is the route table of the API.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/medstore/app/controllers"
	"github.com/shashiranjanraj/medstore/app/models"
	"github.com/shashiranjanraj/medstore/pkg/ctx"
	"github.com/shashiranjanraj/medstore/pkg/middleware"
	"github.com/shashiranjanraj/medstore/pkg/rbac"
	"github.com/shashiranjanraj/medstore/pkg/router"
)

// Handlers bundles what the route table needs.
type Handlers struct {
	Tokens    middleware.TokenValidator
	Auth      *controllers.AuthController
	Users     *controllers.UserController
	Medicines *controllers.MedicineController
	Checkups  *controllers.CheckupController
	Leads     *controllers.LeadController
	GraphQL   http.Handler
}

func RegisterAPI(r *router.Router, h Handlers) {
	api := r.Group("/api")

	// public
	api.Post("/auth/login", "auth.login", ctx.Wrap(h.Auth.Login))
	api.Post("/auth/seed", "auth.seed", ctx.Wrap(h.Auth.Seed))
	api.Post("/public/appointment", "public.appointment", ctx.Wrap(h.Leads.Appointment))

	protected := api.Group("", middleware.Auth(h.Tokens))
	admin := rbac.HasRole(models.RoleAdmin)

	protected.Get("/auth/me", "auth.me", ctx.Wrap(h.Auth.Me))

	protected.Get("/medicines", "medicines.index", ctx.Wrap(h.Medicines.Index))
	protected.Post("/medicines", "medicines.store", ctx.Wrap(h.Medicines.Store), admin)
	protected.Get("/medicines/export", "medicines.export", ctx.Wrap(h.Medicines.Export))
	protected.Get("/medicines/imports", "medicines.imports", ctx.Wrap(h.Medicines.Imports), admin)
	protected.Put("/medicines/{id}", "medicines.update", ctx.Wrap(h.Medicines.Update), admin)
	protected.Post("/upload-medicines", "medicines.upload", ctx.Wrap(h.Medicines.Upload), admin)

	protected.Get("/checkups", "checkups.index", ctx.Wrap(h.Checkups.Index))
	protected.Post("/checkups", "checkups.store", ctx.Wrap(h.Checkups.Store))
	protected.Get("/checkups/types", "checkups.types", ctx.Wrap(h.Checkups.Types))

	protected.Get("/leads", "leads.index", ctx.Wrap(h.Leads.Index))
	protected.Post("/leads", "leads.store", ctx.Wrap(h.Leads.Store))
	protected.Put("/leads/{id}", "leads.update", ctx.Wrap(h.Leads.Update))
	protected.Delete("/leads/{id}", "leads.destroy", ctx.Wrap(h.Leads.Destroy), admin)

	users := protected.Group("/users", admin)
	users.Get("/", "users.index", ctx.Wrap(h.Users.Index))
	users.Post("/", "users.store", ctx.Wrap(h.Users.Store))
	users.Delete("/{id}", "users.destroy", ctx.Wrap(h.Users.Destroy))
	users.Put("/{id}/password", "users.password", ctx.Wrap(h.Users.UpdatePassword))

	if h.GraphQL != nil {
		protected.Handle(http.MethodPost, "/graphql", "graphql", h.GraphQL, admin)
	}
}
