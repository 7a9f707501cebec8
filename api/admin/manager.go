package admin

import (
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AdminRoutesManager struct {
	logger         *gecho.Logger
	adminService   *services.AdminService
	profileService *services.ProfileService
	storageService *services.StorageService
	mw             *middleware.Middleware
}

func NewAdminRoutesManager(
	logger *gecho.Logger,
	adminService *services.AdminService,
	profileService *services.ProfileService,
	storageService *services.StorageService,
	mw *middleware.Middleware,
) *AdminRoutesManager {
	return &AdminRoutesManager{
		logger:         logger,
		adminService:   adminService,
		profileService: profileService,
		storageService: storageService,
		mw:             mw,
	}
}

func (ar *AdminRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(ar.mw.AdminGate)
		r.Use(ar.mw.CSRFMiddleware())

		r.Get("/summary", ar.GetSummary)

		r.Get("/products", ar.ListProducts)
		r.Post("/products", ar.CreateProduct)
		r.Post("/products/images", ar.UploadProductImage)
		r.Put("/products/{id}", ar.UpdateProduct)
		r.Delete("/products/{id}", ar.DeleteProduct)

		r.Get("/suppliers", ar.ListSuppliers)
		r.Post("/suppliers", ar.CreateSupplier)
		r.Put("/suppliers/{id}", ar.UpdateSupplier)
		r.Delete("/suppliers/{id}", ar.DeleteSupplier)

		r.Get("/categories", ar.ListCategories)
		r.Post("/categories", ar.CreateCategory)
		r.Put("/categories/{id}", ar.UpdateCategory)
		r.Delete("/categories/{id}", ar.DeleteCategory)

		// Order management routes
		r.Get("/orders", ar.ListOrders)
		r.Get("/orders/{id}", ar.GetOrderDetails)

		r.Get("/users", ar.ListUsers)
		r.Delete("/users/{id}", ar.DeleteUser)
	})
}
