package catalog

import (
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type CatalogRoutesManager struct {
	logger         *gecho.Logger
	catalogService *services.CatalogService
}

func NewCatalogRoutesManager(logger *gecho.Logger, catalogService *services.CatalogService) *CatalogRoutesManager {
	return &CatalogRoutesManager{
		logger:         logger,
		catalogService: catalogService,
	}
}

func (crm *CatalogRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", crm.FetchCategories)
		r.Get("/products", crm.FetchProducts)
		r.Get("/products/{id}", crm.FetchProductByID)
	})
}
