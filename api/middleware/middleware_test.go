package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"yeshivashop_server/config"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]*structs.Session

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*structs.Session, error) {
	if session, ok := s[token]; ok {
		return session, nil
	}
	return nil, lib.ErrInvalidToken
}

type stubRoles struct {
	admins map[uuid.UUID]bool
	err    error
}

func (s stubRoles) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.admins[userID], s.err
}

type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (l *countingLimiter) Increment(_ context.Context, key string, _ time.Duration) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return l.counts[key], nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type fixture struct {
	mw       *Middleware
	customer *structs.Session
	admin    *structs.Session
	limiter  *countingLimiter
}

func newFixture() *fixture {
	customer := &structs.Session{UserID: uuid.New(), SessionID: "customer"}
	admin := &structs.Session{UserID: uuid.New(), SessionID: "admin"}

	cfg := config.Load()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.GeneralLimit = 2
	cfg.RateLimit.GeneralWindow = time.Minute

	limiter := &countingLimiter{}
	mw := NewMiddleware(cfg, gecho.NewDefaultLogger(),
		stubVerifier{"customer-token": customer, "admin-token": admin},
		stubRoles{admins: map[uuid.UUID]bool{admin.UserID: true}},
		limiter,
	)
	return &fixture{mw: mw, customer: customer, admin: admin, limiter: limiter}
}

func TestSessionMiddleware(t *testing.T) {
	f := newFixture()

	var got *structs.Session
	h := f.mw.SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer customer-token")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, f.customer, got)

	r = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(&http.Cookie{Name: lib.AccessCookieName, Value: "admin-token"})
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, f.admin, got)

	r = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer forged")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Nil(t, got, "invalid tokens continue anonymously")
}

func TestRequireSession(t *testing.T) {
	f := newFixture()
	h := f.mw.SessionMiddleware(f.mw.RequireSession(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders/checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	r := httptest.NewRequest(http.MethodPost, "/api/orders/checkout", nil)
	r.Header.Set("Authorization", "Bearer customer-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminGate(t *testing.T) {
	f := newFixture()
	h := f.mw.SessionMiddleware(f.mw.AdminGate(okHandler))

	request := func(method, target, token string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, target, nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	t.Run("anonymous navigation redirects with the original path", func(t *testing.T) {
		rec := request(http.MethodGet, "/admin/orders?page=2", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/login?redirectTo=%2Fadmin%2Forders%3Fpage%3D2", rec.Header().Get("Location"))
	})

	t.Run("customer navigation redirects", func(t *testing.T) {
		rec := request(http.MethodGet, "/admin/products", "customer-token")
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("api writes get status codes", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, request(http.MethodPost, "/admin/products", "").Code)
		assert.Equal(t, http.StatusForbidden, request(http.MethodDelete, "/admin/products/x", "customer-token").Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, request(http.MethodGet, "/admin/products", "admin-token").Code)
		assert.Equal(t, http.StatusOK, request(http.MethodPost, "/admin/products", "admin-token").Code)
	})

	t.Run("login page is exempt", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, request(http.MethodGet, "/admin/login", "").Code)
		assert.Equal(t, http.StatusOK, request(http.MethodGet, "/admin/login/callback", "").Code)
	})

	t.Run("paths sharing the login prefix are gated", func(t *testing.T) {
		rec := request(http.MethodGet, "/admin/loginX", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, http.StatusUnauthorized, request(http.MethodPost, "/admin/login-settings", "").Code)
	})

	t.Run("role lookup failure", func(t *testing.T) {
		f.mw.roles = stubRoles{err: errors.New("db down")}
		assert.Equal(t, http.StatusInternalServerError, request(http.MethodGet, "/admin/products", "admin-token").Code)
	})
}

func TestCSRFMiddleware(t *testing.T) {
	f := newFixture()
	h := f.mw.CSRFMiddleware()(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/products", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	r := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	r.AddCookie(&http.Cookie{Name: lib.CSRFCookieName, Value: "token-a"})
	r.Header.Set("X-CSRF-Token", "token-b")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	r = httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	r.AddCookie(&http.Cookie{Name: lib.CSRFCookieName, Value: "token-a"})
	r.Header.Set("X-CSRF-Token", "token-a")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	f := newFixture()
	h := f.mw.RateLimitMiddleware()(okHandler)

	hit := func(path string) int {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("/api/cart/items"))
	assert.Equal(t, http.StatusOK, hit("/api/cart/items"))
	assert.Equal(t, http.StatusTooManyRequests, hit("/api/cart/items"))
	assert.Equal(t, http.StatusOK, hit("/health/server"), "health checks are never limited")

	f.limiter.err = errors.New("redis down")
	assert.Equal(t, http.StatusOK, hit("/api/cart/items"), "general limiter fails open")
}

func TestStrictRateLimitFailsClosed(t *testing.T) {
	f := newFixture()
	f.limiter.err = errors.New("redis down")
	h := f.mw.StrictRateLimitMiddleware(5, time.Minute)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders/checkout", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateRateLimitKey(t *testing.T) {
	f := newFixture()
	require.Equal(t, "ratelimit:1.2.3.4:/api/products/:id", f.mw.generateRateLimitKey("1.2.3.4", "/api/products/3f2504e0"))
	assert.Equal(t, "ratelimit:1.2.3.4:/api/products", f.mw.generateRateLimitKey("1.2.3.4", "/api/products/"))
	assert.Equal(t, "ratelimit:1.2.3.4:/admin/orders/:id", f.mw.generateRateLimitKey("1.2.3.4", "/admin/orders/abc/"))
}
