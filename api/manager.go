package api

import (
	"yeshivashop_server/api/admin"
	"yeshivashop_server/api/auth"
	"yeshivashop_server/api/cart"
	"yeshivashop_server/api/catalog"
	"yeshivashop_server/api/debug"
	"yeshivashop_server/api/health"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/api/orders"
	"yeshivashop_server/services"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type routerManager struct {
	routes []routeRegistrar
}

func NewRouterManager(logger *gecho.Logger, cfg *structs.Config, svc *services.ServiceManager, mw *middleware.Middleware) *routerManager {
	return &routerManager{
		routes: []routeRegistrar{
			catalog.NewCatalogRoutesManager(logger, svc.CatalogService),
			health.NewHealthRoutesManager(svc.HealthService),
			auth.NewAuthRoutesManager(logger, svc.SessionService, svc.ProfileService, cfg, mw),
			cart.NewCartRoutesManager(logger, svc.CartService, mw),
			orders.NewOrderRoutesManager(logger, svc.CheckoutService, svc.OrderService, mw),
			admin.NewAdminRoutesManager(logger, svc.AdminService, svc.ProfileService, svc.StorageService, mw),
			debug.NewDebugRoutesManager(svc.CatalogService, svc.CacheService),
		},
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	for _, routes := range rm.routes {
		routes.RegisterRoutes(r)
	}
}
