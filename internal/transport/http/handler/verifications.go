package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/verimail/internal/application/verification"
	"github.com/verimail/internal/pkg/otp"
)

// VerificationHandler binds the Issue/Redeem contract to HTTP.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type issueBody struct {
	OwnerID    string `json:"owner_id"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Format     string `json:"format"`
	TTLSeconds int    `json:"ttl_seconds"`
	Channel    string `json:"channel"`
}

// Issue handles POST /v1/verifications.
func (h *VerificationHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var body issueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, IssueEnvelope{Error: "invalid request body", Kind: "InvalidInput"})
		return
	}
	if body.TTLSeconds < 0 {
		writeJSON(w, http.StatusBadRequest, IssueEnvelope{Error: "ttl_seconds must be positive", Kind: "InvalidInput"})
		return
	}

	res, err := h.svc.Issue(r.Context(), verification.IssueRequest{
		OwnerID: body.OwnerID,
		Email:   body.Email,
		Phone:   body.Phone,
		Format:  otp.Format(body.Format),
		TTL:     time.Duration(body.TTLSeconds) * time.Second,
		Channel: verification.Channel(body.Channel),
	})
	if err != nil {
		status, kind := classify(err)
		env := IssueEnvelope{Error: err.Error(), Kind: kind}
		if res != nil {
			// DeliveryFailed: the credential is persisted and redeemable,
			// so the caller can resend instead of re-issuing.
			env.CredentialID = res.CredentialID
		}
		writeJSON(w, status, env)
		return
	}
	writeJSON(w, http.StatusOK, IssueEnvelope{Success: true, CredentialID: res.CredentialID})
}

type redeemBody struct {
	OwnerID string `json:"owner_id"`
	Value   string `json:"value"`
}

// Redeem handles POST /v1/verifications/redeem.
func (h *VerificationHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var body redeemBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, RedeemEnvelope{Error: "invalid request body", Kind: "InvalidInput"})
		return
	}
	email, err := h.svc.Redeem(r.Context(), body.OwnerID, body.Value)
	if err != nil {
		status, kind := classify(err)
		writeJSON(w, status, RedeemEnvelope{Error: err.Error(), Kind: kind})
		return
	}
	writeJSON(w, http.StatusOK, RedeemEnvelope{Success: true, Email: email})
}
