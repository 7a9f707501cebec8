package orders

import (
	"errors"
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

// Checkout handles POST /api/orders/checkout. Responses use the bare
// {"ok","orderId","total"} / {"error"} shapes the storefront expects.
func (orm *OrderRoutesManager) Checkout(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	body, err := lib.DecodeBody[structs.CheckoutRequest](r)
	if err != nil {
		handling.WriteError(w, http.StatusBadRequest, lib.UserMessage(err))
		return
	}

	result, err := orm.checkoutService.Checkout(r.Context(), session.UserID, body.Cart)
	if err != nil {
		var ve *lib.ValidationError
		switch {
		case errors.Is(err, lib.ErrUnauthorized):
			handling.WriteError(w, http.StatusUnauthorized, "unauthorized")
		case errors.As(err, &ve), errors.Is(err, lib.ErrEmptyCart), errors.Is(err, lib.ErrProductNotFound):
			handling.WriteError(w, http.StatusBadRequest, lib.UserMessage(err))
		default:
			handling.WriteError(w, http.StatusInternalServerError, lib.ErrCheckoutFailed.Error())
		}
		return
	}

	// The order is committed; supplier emails must not delay or fail the response.
	orm.checkoutService.NotifyInBackground(r.Context(), result.OrderID)

	orm.logger.Debug("Checkout response sent", gecho.Field("order_id", result.OrderID))

	handling.WriteJSON(w, http.StatusCreated, structs.CheckoutResponse{
		Ok:      true,
		OrderID: result.OrderID.String(),
		Total:   result.Total.InexactFloat64(),
	})
}
