package auth

import (
	"net/http"

	"github.com/MonkyMars/gecho"
)

// HandleLogout revokes the current session, if any, and clears the cookies.
func (ar *AuthRoutesManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ar.signOut(w, r)

	gecho.Success(w,
		gecho.WithMessage("Logged out successfully"),
		gecho.Send(),
	)
}
