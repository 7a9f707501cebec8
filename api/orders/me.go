package orders

import (
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"

	"github.com/MonkyMars/gecho"
)

// ListMyOrders handles GET /api/orders
func (orm *OrderRoutesManager) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	orders, err := orm.orderService.ListOrders(r.Context(), session.UserID)
	if err != nil {
		handling.HandleError(err, "Unable to load orders", orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(orders),
		gecho.Send(),
	)
}

// GetMyOrder handles GET /api/orders/{id}; other users' orders are 404.
func (orm *OrderRoutesManager) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	orderID, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", orm.logger, w)
		return
	}

	order, err := orm.orderService.GetOrder(r.Context(), session.UserID, orderID)
	if err != nil {
		handling.HandleError(err, "Order not found", orm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(order),
		gecho.Send(),
	)
}
