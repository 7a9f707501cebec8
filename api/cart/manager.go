package cart

import (
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type CartRoutesManager struct {
	logger      *gecho.Logger
	cartService *services.CartService
	mw          *middleware.Middleware
}

func NewCartRoutesManager(logger *gecho.Logger, cartService *services.CartService, mw *middleware.Middleware) *CartRoutesManager {
	return &CartRoutesManager{
		logger:      logger,
		cartService: cartService,
		mw:          mw,
	}
}

func (crm *CartRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(crm.mw.RequireSession)
		r.Get("/", crm.GetCart)
		r.Delete("/", crm.ClearCart)
		r.Post("/items", crm.AddItem)
		r.Patch("/items/{productID}", crm.UpdateItem)
		r.Delete("/items/{productID}", crm.RemoveItem)
	})
}
