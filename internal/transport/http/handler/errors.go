package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/leaftown/property-api/internal/domain"
)

// writeDomainError maps domain sentinel errors to HTTP status codes. Expired
// credentials carry a machine-readable code so clients can distinguish
// "get a new one" from "this one was never good".
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrExpiredOtp):
		writeJSON(w, http.StatusUnauthorized, MessageEnvelope{Error: "code expired", Code: "otp_expired"})
	case errors.Is(err, domain.ErrInvalidOtp):
		writeError(w, http.StatusUnauthorized, "invalid code")
	case errors.Is(err, domain.ErrExpiredToken):
		writeJSON(w, http.StatusUnauthorized, MessageEnvelope{Error: "token expired", Code: "token_expired"})
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		slog.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
