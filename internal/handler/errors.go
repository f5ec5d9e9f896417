package handler

import (
	"errors"
	"net/http"

	"github.com/prn-tf/atlas-accounts/internal/domain"
)

// statusFor maps domain and service errors to HTTP status codes.
// Validation-class failures (including duplicate email) map to 400,
// authentication failures to 401, not-found to 404, everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrInvalidAge),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrUnsupportedImage),
		errors.Is(err, domain.ErrImageTooLarge),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrAvatarNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error as a JSON reply with the mapped status.
// Internal details are not leaked to the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
