package auth

import (
	"net/http"
	"yeshivashop_server/api/middleware"
	"yeshivashop_server/handling"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AuthRoutesManager) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	profile, err := ar.profileService.GetProfile(r.Context(), session.UserID)
	if err != nil {
		handling.HandleError(err, "Unable to load profile", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]any{
			"session": session,
			"profile": profile,
		}),
		gecho.Send(),
	)
}

// HandleUpdateProfile upserts the caller's contact details. Role is never read from the body.
func (ar *AuthRoutesManager) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSessionFromContext(r.Context())

	body, err := lib.ExtractAndValidateBody[structs.ProfileRequest](r)
	if err != nil {
		handling.HandleError(err, "Please check your details and try again", ar.logger, w)
		return
	}

	profile, err := ar.profileService.UpsertProfile(r.Context(), session, body)
	if err != nil {
		handling.HandleError(err, "Unable to save profile", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Profile saved"),
		gecho.WithData(profile),
		gecho.Send(),
	)
}
