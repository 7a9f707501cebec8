package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func newRouter(dbErr error) chi.Router {
	r := chi.NewRouter()
	NewHealthRoutesManager(services.NewHealthService(gecho.NewDefaultLogger(), stubPinger{err: dbErr}, nil)).RegisterRoutes(r)
	return r
}

func TestHealthRoutes(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/server", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "service_alive")

	rec = httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/database", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(errors.New("connection refused")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/database", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposesShopCounters(t *testing.T) {
	router := newRouter(nil)
	services.CheckoutTotal.WithLabelValues(services.ResultSuccess).Inc()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop_checkout_total")
}
