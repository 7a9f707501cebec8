package auth

import (
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

// HandleCallbackRedirect handles GET /auth/callback?code=&next=. It always
// redirects; a failed exchange only means the visitor lands signed out.
func (ar *AuthRoutesManager) HandleCallbackRedirect(w http.ResponseWriter, r *http.Request) {
	next := lib.SafeRedirectPath(r.URL.Query().Get("next"), lib.DefaultCallbackRedirect)

	if code := r.URL.Query().Get("code"); code != "" {
		verifier, _ := lib.GetCookieValue(lib.CodeVerifierCookieName, r)

		ps, err := ar.sessionService.ExchangeCode(r.Context(), code, verifier)
		if err != nil {
			ar.logger.Warn("Auth code exchange failed", gecho.Field("error", err))
		} else if session, err := ar.sessionService.EstablishSession(r.Context(), ps, w); err != nil {
			ar.logger.Warn("Exchanged session rejected", gecho.Field("error", err))
		} else {
			ar.logger.Info("User signed in", gecho.Field("user_id", session.UserID))
		}

		lib.ClearCookie(lib.CodeVerifierCookieName, w)
	}

	http.Redirect(w, r, next, http.StatusFound)
}

type callbackResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HandleAuthEvent handles POST /auth/callback, mirroring client-side auth
// state changes into the session cookies.
func (ar *AuthRoutesManager) HandleAuthEvent(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.AuthCallbackRequest](r)
	if err != nil {
		handling.WriteJSON(w, http.StatusBadRequest, callbackResponse{Error: lib.UserMessage(err)})
		return
	}

	switch body.Event {
	case structs.AuthEventSignedIn, structs.AuthEventTokenRefreshed:
		session, err := ar.sessionService.EstablishSession(r.Context(), body.Session, w)
		if err != nil {
			ar.logger.Warn("Rejected auth event session", gecho.Field("event", body.Event), gecho.Field("error", err))
			handling.WriteJSON(w, http.StatusBadRequest, callbackResponse{Error: lib.UserMessage(err)})
			return
		}
		ar.logger.Debug("Session cookies updated", gecho.Field("event", body.Event), gecho.Field("user_id", session.UserID))

	case structs.AuthEventSignedOut:
		ar.signOut(w, r)

	default:
		ar.logger.Debug("Ignoring auth event", gecho.Field("event", body.Event))
	}

	handling.WriteJSON(w, http.StatusOK, callbackResponse{Ok: true})
}

func (ar *AuthRoutesManager) signOut(w http.ResponseWriter, r *http.Request) {
	if session, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if err := ar.sessionService.Revoke(r.Context(), session); err != nil {
			ar.logger.Error("Failed to revoke session", gecho.Field("user_id", session.UserID), gecho.Field("error", err))
		}
	}
	ar.sessionService.ClearSessionCookies(w)
}
