package api

import (
	"fmt"
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/config"
	"yeshivashop_server/database"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	chiware "github.com/go-chi/chi/v5/middleware"
)

// App builds the router and the services behind it. The caller owns the
// returned ServiceManager and closes its cache on shutdown.
func App(db *database.DB) (chi.Router, *services.ServiceManager, error) {
	r := chi.NewRouter()

	// create loggers
	mwLogger := config.NewLogger(false)
	standardLogger := config.NewLogger(true)

	// config
	cfg := config.GetConfig()

	svc, err := services.NewServiceManager(standardLogger, cfg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize middleware
	mw := middleware.NewMiddleware(cfg, mwLogger, svc.SessionService, svc.ProfileService, svc.CacheService)

	// Core infra
	r.Use(chiware.RequestID)
	r.Use(chiware.RealIP)
	r.Use(chiware.Recoverer)

	// Limits & security
	r.Use(mw.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(mw.SecurityHeaders())

	// Observability
	r.Use(mw.SetupLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware)

	// CORS (must be before auth / csrf)
	r.Use(mw.SetupCORS().Handler)

	// Session is optional here; areas that need one add RequireSession or AdminGate
	r.Use(mw.SessionMiddleware)
	r.Use(mw.RateLimitMiddleware())

	// Register all routes
	NewRouterManager(standardLogger, cfg, svc, mw).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gecho.Success(w,
			gecho.WithMessage("Welcome to the YeshivaShop API"),
			gecho.Send(),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		gecho.NotFound(w,
			gecho.Send(),
		)
	})

	return r, svc, nil
}
