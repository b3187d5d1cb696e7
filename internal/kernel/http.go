// Package kernel assembles the HTTP handler: global middleware, the
// service graph and the route table.
package kernel

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/medstore/app/controllers"
	"github.com/shashiranjanraj/medstore/app/reports"
	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/app/routes"
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/pkg/auth"
	"github.com/shashiranjanraj/medstore/pkg/cache"
	"github.com/shashiranjanraj/medstore/pkg/graphql"
	"github.com/shashiranjanraj/medstore/pkg/logger"
	"github.com/shashiranjanraj/medstore/pkg/metrics"
	"github.com/shashiranjanraj/medstore/pkg/middleware"
	"github.com/shashiranjanraj/medstore/pkg/reqid"
	"github.com/shashiranjanraj/medstore/pkg/response"
	"github.com/shashiranjanraj/medstore/pkg/router"
	"github.com/shashiranjanraj/medstore/pkg/storage"
)

// Deps are the long-lived resources the handlers share. Cache and Disk may
// be nil; zero limits take the defaults below.
type Deps struct {
	Store       repositories.Store
	Cache       *cache.Cache
	Disk        storage.Disk
	Signer      *auth.Signer
	Seed        services.SeedPasswords
	LowStock    int
	MaxUpload   int64
	RateLimit   int
	CORSOrigins []string
}

const (
	defaultRateLimit = 300
	defaultMaxUpload = 10 << 20
)

// NewHTTPKernel builds the router with the global middleware stack and all
// routes registered.
func NewHTTPKernel(d Deps) *router.Router {
	if d.RateLimit <= 0 {
		d.RateLimit = defaultRateLimit
	}
	if d.MaxUpload <= 0 {
		d.MaxUpload = defaultMaxUpload
	}

	r := router.New()

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics: outermost for accurate total latency
	//  2. Recovery: catches panics before they kill the goroutine
	//  3. Request ID: inject unique ID before anything logs
	//  4. Logger: logs request_id from context
	//  5. CORS: set CORS headers
	//  6. Rate limiter: reject abusers early
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(d.CORSOrigins...)))
	r.Use(middleware.RateLimit(d.RateLimit, time.Minute))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w, "Route not found") })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Prometheus /metrics endpoint, no auth.
	r.Mount("/metrics", metrics.Handler())

	r.Get("/", "home", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Medical Store API is Running"))
	})
	r.Get("/healthz", "health", func(w http.ResponseWriter, req *http.Request) {
		if err := d.Store.Ping(req.Context()); err != nil {
			logger.WithCtx(req.Context()).Error("health: store ping failed", "error", err)
			response.Error(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
		response.Message(w, "ok", nil)
	})

	routes.RegisterAPI(r, handlers(d))
	return r
}

func handlers(d Deps) routes.Handlers {
	reportSvc := services.NewReportService(d.Store, d.LowStock)

	h := routes.Handlers{
		Tokens:    d.Signer,
		Auth:      controllers.NewAuthController(services.NewAuthService(d.Store, d.Signer, d.Seed)),
		Users:     controllers.NewUserController(services.NewUserService(d.Store)),
		Medicines: controllers.NewMedicineController(services.NewMedicineService(d.Store, d.Cache, d.Disk, d.LowStock), d.MaxUpload),
		Checkups:  controllers.NewCheckupController(services.NewCheckupService(d.Store)),
		Leads:     controllers.NewLeadController(services.NewLeadService(d.Store)),
	}

	schema, err := reports.NewSchema(reportSvc)
	if err != nil {
		logger.Error("graphql: schema build failed, endpoint disabled", "error", err)
		return h
	}
	h.GraphQL = graphql.Handler(schema)
	return h
}
