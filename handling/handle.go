package handling

import (
	"encoding/json"
	"errors"
	"net/http"
	"yeshivashop_server/lib"
	"yeshivashop_server/services"

	"github.com/MonkyMars/gecho"
)

// HandleError maps a service error onto the matching gecho response.
// Unknown errors are logged and answered with a bare 500.
func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) error {
	var ve *lib.ValidationError
	switch {
	case errors.As(err, &ve):
		gecho.BadRequest(w, gecho.WithMessage(msg), gecho.WithData(ve), gecho.Send())
		return nil
	case errors.Is(err, lib.ErrEmptyCart), errors.Is(err, lib.ErrProductNotFound):
		gecho.BadRequest(w, gecho.WithMessage(lib.UserMessage(err)), gecho.Send())
		return nil
	case lib.IsNotFound(err):
		gecho.NotFound(w, gecho.WithMessage(msg), gecho.Send())
		return nil
	case lib.IsConstraintViolation(err), lib.IsConflict(err):
		gecho.Conflict(w, gecho.WithMessage(lib.UserMessage(err)), gecho.Send())
		return nil
	case errors.Is(err, lib.ErrUnauthorized), errors.Is(err, lib.ErrInvalidToken),
		errors.Is(err, lib.ErrExpiredToken), errors.Is(err, lib.ErrSessionIdle):
		gecho.Unauthorized(w, gecho.WithMessage(lib.UserMessage(err)), gecho.Send())
		return nil
	case errors.Is(err, lib.ErrForbidden):
		gecho.Forbidden(w, gecho.WithMessage(msg), gecho.Send())
		return nil
	case errors.Is(err, services.ErrStorageDisabled), errors.Is(err, services.ErrEmailDisabled):
		gecho.ServiceUnavailable(w, gecho.WithMessage(err.Error()), gecho.Send())
		return nil
	}

	logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))

	gecho.InternalServerError(w, gecho.WithMessage(msg), gecho.Send())
	return nil
}

// WriteJSON writes v with the given status and no envelope.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, map[string]string{"error": msg})
}
