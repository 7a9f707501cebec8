package debug

import (
	"net/http"
	"yeshivashop_server/config"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

// DebugRoutesManager exposes cache tooling outside production.
type DebugRoutesManager struct {
	catalogService *services.CatalogService
	cacheService   *services.CacheService
}

func NewDebugRoutesManager(catalogService *services.CatalogService, cacheService *services.CacheService) *DebugRoutesManager {
	return &DebugRoutesManager{
		catalogService: catalogService,
		cacheService:   cacheService,
	}
}

func (drm *DebugRoutesManager) RegisterRoutes(r chi.Router) {
	if config.IsProduction() {
		return
	}

	r.Route("/debug/cache", func(r chi.Router) {
		r.Get("/stats", drm.CacheStats)
		r.Post("/clear", drm.ClearCatalogCache)
	})
}

// ClearCatalogCache drops every cached catalog entry.
func (drm *DebugRoutesManager) ClearCatalogCache(w http.ResponseWriter, r *http.Request) {
	drm.catalogService.Invalidate(r.Context())

	gecho.Success(w,
		gecho.WithMessage("Catalog cache cleared"),
		gecho.Send(),
	)
}

func (drm *DebugRoutesManager) CacheStats(w http.ResponseWriter, r *http.Request) {
	gecho.Success(w,
		gecho.WithData(drm.cacheService.GetConnectionStats()),
		gecho.Send(),
	)
}
