package admin

import (
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := ar.profileService.ListProfiles(r.Context())
	if err != nil {
		handling.HandleError(err, "Unable to retrieve users", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(profiles), gecho.Send())
}

func (ar *AdminRoutesManager) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	id, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid user id", ar.logger, w)
		return
	}

	if err := ar.profileService.DeleteProfile(r.Context(), session.UserID, id); err != nil {
		handling.HandleError(err, "Unable to delete user", ar.logger, w)
		return
	}

	ar.logger.Info("User deleted", gecho.Field("user_id", id), gecho.Field("by", session.UserID))
	gecho.Success(w, gecho.WithMessage("User deleted successfully"), gecho.Send())
}
