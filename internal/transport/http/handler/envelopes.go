package handler

import (
	"encoding/json"
	"net/http"

	"github.com/leaftown/property-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// AuthEnvelope wraps OTP verification and refresh responses. The refresh token
// travels in an httpOnly cookie, never in the body.
type AuthEnvelope struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user,omitempty"`
}

// OTPEnvelope wraps send-otp responses with a role hint for the client.
type OTPEnvelope struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
