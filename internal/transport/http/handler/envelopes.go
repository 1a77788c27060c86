package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verimail/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// IssueEnvelope wraps issuance responses.
type IssueEnvelope struct {
	Success      bool   `json:"success"`
	CredentialID string `json:"credential_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Kind         string `json:"kind,omitempty"`
}

// RedeemEnvelope wraps redemption responses.
type RedeemEnvelope struct {
	Success bool   `json:"success"`
	Email   string `json:"email,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// classify maps a service error to its HTTP status and wire kind.
// One taxonomy regardless of transport binding.
func classify(err error) (status int, kind string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, "Expired"
	case errors.Is(err, domain.ErrAlreadyConsumed):
		return http.StatusConflict, "AlreadyConsumed"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RateLimited"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway, "DeliveryFailed"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "StoreUnavailable"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}
