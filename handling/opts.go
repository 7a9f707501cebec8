package handling

import (
	"net/http"
	"strings"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseCatalogFilter reads category, supplier and search from the query string.
func ParseCatalogFilter(r *http.Request) (*structs.CatalogFilter, error) {
	query := r.URL.Query()
	filter := &structs.CatalogFilter{
		Category: strings.TrimSpace(query.Get("category")),
		Search:   strings.TrimSpace(query.Get("search")),
	}

	if supplier := strings.TrimSpace(query.Get("supplier")); supplier != "" {
		id, err := uuid.Parse(supplier)
		if err != nil {
			return nil, lib.NewValidationError("supplier", "must be a valid id")
		}
		filter.SupplierID = &id
	}

	if len(filter.Search) > 100 {
		return nil, lib.NewValidationError("search", "must be at most 100 characters")
	}

	return filter, nil
}

// ParseUUIDParam parses a chi URL parameter as a uuid.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, lib.NewValidationError(name, "must be a valid id")
	}
	return id, nil
}
