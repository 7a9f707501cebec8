package admin

import (
	"net/http"
	"yeshivashop_server/handling"

	"github.com/MonkyMars/gecho"
)

// ListOrders returns every order with its customer profile and items, newest first.
func (ar *AdminRoutesManager) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := ar.adminService.ListOrders(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to retrieve orders", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(orders),
		gecho.WithMessage("Orders retrieved successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", ar.logger, w)
		return
	}

	order, err := ar.adminService.GetOrder(r.Context(), id)
	if err != nil {
		handling.HandleError(err, "Unable to retrieve order", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(order), gecho.Send())
}

func (ar *AdminRoutesManager) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := ar.adminService.Summary(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to load dashboard", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(summary), gecho.Send())
}
