package admin

import (
	"net/http"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := ar.adminService.ListProducts(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to retrieve products", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(products),
		gecho.WithMessage("Products retrieved successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) CreateProduct(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.ProductRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the product information and try again", ar.logger, w)
		return
	}

	product, err := ar.adminService.CreateProduct(r.Context(), body)
	if err != nil {
		handling.HandleError(err, "Unable to create product. Please try again", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(product),
		gecho.WithMessage("Product created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.ProductRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the product information and try again", ar.logger, w)
		return
	}

	product, err := ar.adminService.UpdateProduct(r.Context(), id, body)
	if err != nil {
		handling.HandleError(err, "Unable to update product. Please try again", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(product),
		gecho.WithMessage("Product updated successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteProduct(r.Context(), id); err != nil {
		handling.HandleError(err, "Unable to delete product", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Product deleted successfully"),
		gecho.Send(),
	)
}
