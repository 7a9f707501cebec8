package catalog

import (
	"net/http"
	"yeshivashop_server/handling"

	"github.com/MonkyMars/gecho"
)

// FetchCategories handles GET /api/categories with both the flat list and the tree
func (crm *CatalogRoutesManager) FetchCategories(w http.ResponseWriter, r *http.Request) {
	listing, err := crm.catalogService.ListCategories(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to load categories", crm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(listing),
		gecho.Send(),
	)
}

// FetchProducts handles GET /api/products?category=&supplier=&search=
func (crm *CatalogRoutesManager) FetchProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := handling.ParseCatalogFilter(r)
	if err != nil {
		handling.HandleError(err, "Invalid query parameters", crm.logger, w)
		return
	}

	crm.logger.Debug("Fetching products",
		gecho.Field("category", filter.Category),
		gecho.Field("search", filter.Search),
	)

	products, err := crm.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		handling.HandleError(err, "Unable to load products", crm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"products": products,
			"count":    len(products),
		}),
		gecho.Send(),
	)
}

// FetchProductByID handles GET /api/products/{id}
func (crm *CatalogRoutesManager) FetchProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", crm.logger, w)
		return
	}

	product, err := crm.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		handling.HandleError(err, "Product not found", crm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(product),
		gecho.Send(),
	)
}
