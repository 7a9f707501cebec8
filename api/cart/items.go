package cart

import (
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

func (crm *CartRoutesManager) respond(w http.ResponseWriter, view *structs.CartView, err error, msg string) {
	if err != nil {
		handling.HandleError(err, msg, crm.logger, w)
		return
	}
	gecho.Success(w,
		gecho.WithData(view),
		gecho.Send(),
	)
}

func (crm *CartRoutesManager) GetCart(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())
	view, err := crm.cartService.GetCart(r.Context(), session.UserID)
	crm.respond(w, view, err, "Unable to load cart")
}

func (crm *CartRoutesManager) AddItem(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	body, err := lib.ExtractAndValidateBody[structs.AddCartItemRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the cart item and try again", crm.logger, w)
		return
	}

	view, err := crm.cartService.AddItem(r.Context(), session.UserID, body)
	crm.respond(w, view, err, "Unable to add item to cart")
}

func (crm *CartRoutesManager) UpdateItem(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	productID, err := handling.ParseUUIDParam(r, "productID")
	if err != nil {
		handling.HandleError(err, "Invalid product id", crm.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.UpdateCartItemRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the quantity and try again", crm.logger, w)
		return
	}

	view, err := crm.cartService.UpdateQuantity(r.Context(), session.UserID, productID, body.Delta)
	crm.respond(w, view, err, "Unable to update cart item")
}

func (crm *CartRoutesManager) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	productID, err := handling.ParseUUIDParam(r, "productID")
	if err != nil {
		handling.HandleError(err, "Invalid product id", crm.logger, w)
		return
	}

	view, err := crm.cartService.RemoveItem(r.Context(), session.UserID, productID)
	crm.respond(w, view, err, "Unable to remove cart item")
}

func (crm *CartRoutesManager) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())
	view, err := crm.cartService.ClearCart(r.Context(), session.UserID)
	crm.respond(w, view, err, "Unable to clear cart")
}
