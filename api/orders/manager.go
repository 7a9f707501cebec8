package orders

import (
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type OrderRoutesManager struct {
	logger          *gecho.Logger
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
	mw              *middleware.Middleware
}

func NewOrderRoutesManager(
	logger *gecho.Logger,
	checkoutService *services.CheckoutService,
	orderService *services.OrderService,
	mw *middleware.Middleware,
) *OrderRoutesManager {
	return &OrderRoutesManager{
		logger:          logger,
		checkoutService: checkoutService,
		orderService:    orderService,
		mw:              mw,
	}
}

func (orm *OrderRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(orm.mw.RequireSession)
		r.With(orm.mw.CheckoutRateLimit()).Post("/checkout", orm.Checkout)
		r.Get("/", orm.ListMyOrders)
		r.Get("/{id}", orm.GetMyOrder)
	})
}
