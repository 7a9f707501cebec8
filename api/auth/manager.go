package auth

import (
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/services"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AuthRoutesManager struct {
	logger         *gecho.Logger
	sessionService *services.SessionService
	profileService *services.ProfileService
	cfg            *structs.Config
	mw             *middleware.Middleware
}

func NewAuthRoutesManager(
	logger *gecho.Logger,
	sessionService *services.SessionService,
	profileService *services.ProfileService,
	cfg *structs.Config,
	mw *middleware.Middleware,
) *AuthRoutesManager {
	return &AuthRoutesManager{
		logger:         logger,
		sessionService: sessionService,
		profileService: profileService,
		cfg:            cfg,
		mw:             mw,
	}
}

func (ar *AuthRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		// CSRF token endpoint (must be called before admin writes)
		r.Get("/csrf", ar.HandleCSRF)

		r.Get("/callback", ar.HandleCallbackRedirect)
		r.Post("/callback", ar.HandleAuthEvent)
		r.Post("/logout", ar.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ar.mw.RequireSession)
			r.Get("/me", ar.HandleMe)
			r.Put("/profile", ar.HandleUpdateProfile)
		})
	})
}
