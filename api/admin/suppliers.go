package admin

import (
	"net/http"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := ar.adminService.ListSuppliers(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to retrieve suppliers", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(suppliers), gecho.Send())
}

func (ar *AdminRoutesManager) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.SupplierRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the supplier details and try again", ar.logger, w)
		return
	}

	supplier, err := ar.adminService.CreateSupplier(r.Context(), body)
	if err != nil {
		handling.HandleError(err, "Unable to create supplier", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(supplier),
		gecho.WithMessage("Supplier created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid supplier id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.SupplierRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the supplier details and try again", ar.logger, w)
		return
	}

	supplier, err := ar.adminService.UpdateSupplier(r.Context(), id, body)
	if err != nil {
		handling.HandleError(err, "Unable to update supplier", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(supplier),
		gecho.WithMessage("Supplier updated successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid supplier id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteSupplier(r.Context(), id); err != nil {
		handling.HandleError(err, "Unable to delete supplier", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Supplier deleted successfully"), gecho.Send())
}
