package admin

import (
	"net/http"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := ar.adminService.ListCategories(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to retrieve categories", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(categories), gecho.Send())
}

func (ar *AdminRoutesManager) CreateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CategoryRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the category details and try again", ar.logger, w)
		return
	}

	category, err := ar.adminService.CreateCategory(r.Context(), body)
	if err != nil {
		handling.HandleError(err, "Unable to create category", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(category),
		gecho.WithMessage("Category created successfully"),
		gecho.Send(),
	)
}

// UpdateCategory rejects a parent that is the category itself or one of its descendants.
func (ar *AdminRoutesManager) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid category id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.CategoryRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check the category details and try again", ar.logger, w)
		return
	}

	category, err := ar.adminService.UpdateCategory(r.Context(), id, body)
	if err != nil {
		handling.HandleError(err, "Unable to update category", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(category),
		gecho.WithMessage("Category updated successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid category id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteCategory(r.Context(), id); err != nil {
		handling.HandleError(err, "Unable to delete category", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Category deleted successfully"), gecho.Send())
}
