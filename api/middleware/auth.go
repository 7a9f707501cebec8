package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

// Context keys for storing session data in request context
type contextKey string

const SessionContextKey contextKey = "session"

// WithSession returns ctx carrying the verified session.
func WithSession(ctx context.Context, session *structs.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// GetSessionFromContext returns the session attached by SessionMiddleware.
func GetSessionFromContext(ctx context.Context) (*structs.Session, bool) {
	session, ok := ctx.Value(SessionContextKey).(*structs.Session)
	return session, ok && session != nil
}

// SessionMiddleware attaches the caller's session when a valid token is present.
// Requests without one continue anonymously.
func (mw *Middleware) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := lib.ExtractSessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := mw.sessions.VerifyToken(r.Context(), token)
		if err != nil {
			mw.logger.Debug("Ignoring invalid session token", gecho.Field("error", err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireSession rejects anonymous callers with {"error":"unauthorized"}.
// Must be used after SessionMiddleware
func (mw *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			_ = handling.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminGate lets only admins through. Browser navigations are redirected to the
// admin login page with the requested path preserved; API calls get 401/403.
// Must be used after SessionMiddleware
func (mw *Middleware) AdminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p == lib.AdminLoginPath || strings.HasPrefix(p, lib.AdminLoginPath+"/") {
			next.ServeHTTP(w, r)
			return
		}

		session, ok := GetSessionFromContext(r.Context())
		if !ok {
			mw.denyAdmin(w, r, lib.ErrUnauthorized)
			return
		}

		isAdmin, err := mw.roles.IsAdmin(r.Context(), session.UserID)
		if err != nil && !lib.IsNotFound(err) {
			mw.logger.Error("Failed to resolve admin role", gecho.Field("user_id", session.UserID), gecho.Field("error", err))
			gecho.InternalServerError(w, gecho.Send())
			return
		}
		if !isAdmin {
			mw.logger.Warn("Non-admin user attempted to access admin route", gecho.Field("user_id", session.UserID), gecho.Field("path", r.URL.Path))
			mw.denyAdmin(w, r, lib.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mw *Middleware) denyAdmin(w http.ResponseWriter, r *http.Request, reason error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		http.Redirect(w, r, lib.AdminLoginURL(r.URL.RequestURI()), http.StatusFound)
		return
	}
	if errors.Is(reason, lib.ErrForbidden) {
		gecho.Forbidden(w, gecho.WithMessage("Admin access required"), gecho.Send())
		return
	}
	gecho.Unauthorized(w, gecho.WithMessage("Authentication required"), gecho.Send())
}
