package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/verimail/internal/config"
	"github.com/verimail/internal/domain"
	"github.com/verimail/internal/pkg/id"
	"github.com/verimail/internal/pkg/otp"
	"github.com/verimail/internal/pkg/validate"
)

// Store is the credential store contract. Consume must be a single atomic
// conditional update: the consumed flag transition and the expiry check happen
// in one store operation, which is the sole serialization point across
// service instances.
type Store interface {
	Put(ctx context.Context, c *domain.Credential) error
	// GetNewestByOwner returns the owner's most recently created credential,
	// or domain.ErrNotFound when none is outstanding.
	GetNewestByOwner(ctx context.Context, ownerID string) (*domain.Credential, error)
	// Consume atomically marks the credential consumed and returns it.
	// Fails with domain.ErrNotFound, domain.ErrExpired or
	// domain.ErrAlreadyConsumed; those outcomes are terminal.
	Consume(ctx context.Context, ownerID, value string, now time.Time) (*domain.Credential, error)
	// DeleteByOwner removes the owner's credentials except the one with
	// exceptValue (pass "" to remove all).
	DeleteByOwner(ctx context.Context, ownerID, exceptValue string) error
}

// Mailer delivers a rendered notification to an email address.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a rendered notification to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Channel selects the delivery transport for an issued credential.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type IssueRequest struct {
	OwnerID string `json:"owner_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	// Phone is the SMS destination, required only for ChannelSMS.
	Phone  string     `json:"phone,omitempty"`
	Format otp.Format `json:"format,omitempty"`
	// TTL zero means the policy default; negative is rejected.
	TTL     time.Duration `json:"-"`
	Channel Channel       `json:"channel,omitempty"`
}

// IssueResult reports a persisted issuance. CredentialID is safe to log and
// return to callers; the secret value is delivered out-of-band only.
type IssueResult struct {
	CredentialID string
	ExpiresAt    int64
}

type Service interface {
	// Issue generates a credential, persists it with an absolute expiry, and
	// hands the rendered notification to the delivery gateway. A delivery
	// failure is reported as domain.ErrDeliveryFailed alongside a valid
	// IssueResult: the credential is persisted and redeemable, so callers
	// should resend rather than re-issue.
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
	// Redeem atomically consumes the credential keyed by (ownerID, value)
	// and returns the verified email address. At most one Redeem per
	// credential ever succeeds.
	Redeem(ctx context.Context, ownerID, value string) (string, error)
}

type ServiceDeps struct {
	Store     Store
	Mailer    Mailer
	SMSSender SMSSender
	Policy    config.VerifyPolicy
}

type service struct {
	store  Store
	mailer Mailer
	sms    SMSSender
	policy config.VerifyPolicy
}

func NewService(deps ServiceDeps) Service {
	return &service{
		store:  deps.Store,
		mailer: deps.Mailer,
		sms:    deps.SMSSender,
		policy: deps.Policy,
	}
}

func (s *service) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	if req.TTL < 0 {
		return nil, fmt.Errorf("ttl must not be negative: %w", domain.ErrInvalidInput)
	}
	if req.TTL == 0 {
		req.TTL = s.policy.DefaultTTL
	}
	if req.Format == "" {
		req.Format = otp.Format(s.policy.DefaultFormat)
	}
	switch req.Channel {
	case "":
		req.Channel = ChannelEmail
	case ChannelEmail:
	case ChannelSMS:
		if req.Phone == "" {
			return nil, fmt.Errorf("phone required for sms channel: %w", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("unknown channel %q: %w", req.Channel, domain.ErrInvalidInput)
	}

	now := time.Now().UTC()

	if s.policy.ResendCooldown > 0 {
		prev, err := s.store.GetNewestByOwner(ctx, req.OwnerID)
		switch {
		case err == nil:
			if now.Unix()-prev.CreatedAt < int64(s.policy.ResendCooldown/time.Second) {
				return nil, fmt.Errorf("issue cooldown active for owner: %w", domain.ErrRateLimited)
			}
		case !errors.Is(err, domain.ErrNotFound):
			// The cooldown is a guard, not an invariant. Fail open.
			slog.Warn("cooldown lookup failed", "owner_id", req.OwnerID, "err", err)
		}
	}

	length := s.policy.TokenLength
	if req.Format == otp.FormatCode {
		length = s.policy.CodeLength
	}
	value, err := otp.Generate(req.Format, length)
	if err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		OwnerID:      req.OwnerID,
		Value:        value,
		CredentialID: id.New(),
		Email:        req.Email,
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Unix() + int64(req.TTL/time.Second),
		Consumed:     false,
	}
	if err := s.store.Put(ctx, cred); err != nil {
		slog.Error("persist credential failed", "owner_id", req.OwnerID, "err", err)
		return nil, fmt.Errorf("persist credential: %w", domain.ErrStoreUnavailable)
	}
	slog.Info("credential issued",
		"owner_id", req.OwnerID,
		"credential_id", cred.CredentialID,
		"format", req.Format,
		"ttl", req.TTL,
	)

	if s.policy.InvalidatePrior {
		if err := s.store.DeleteByOwner(ctx, req.OwnerID, value); err != nil {
			slog.Warn("invalidate prior credentials failed", "owner_id", req.OwnerID, "err", err)
		}
	}

	res := &IssueResult{CredentialID: cred.CredentialID, ExpiresAt: cred.ExpiresAt}

	subject, body := s.render(req, value)
	if err := s.deliver(ctx, req, subject, body); err != nil {
		// The credential is persisted and stays redeemable; issuance must
		// not be rolled back because a notification bounced.
		slog.Warn("delivery failed", "owner_id", req.OwnerID, "credential_id", cred.CredentialID, "channel", req.Channel, "err", err)
		return res, fmt.Errorf("send verification via %s: %w", req.Channel, domain.ErrDeliveryFailed)
	}
	return res, nil
}

func (s *service) Redeem(ctx context.Context, ownerID, value string) (string, error) {
	if ownerID == "" || value == "" {
		return "", fmt.Errorf("owner_id and value required: %w", domain.ErrInvalidInput)
	}
	cred, err := s.store.Consume(ctx, ownerID, value, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrExpired),
			errors.Is(err, domain.ErrAlreadyConsumed):
			// Keep the terminal kinds distinguishable here even if a
			// boundary collapses them for end users.
			slog.Info("redeem rejected", "owner_id", ownerID, "reason", err)
			return "", err
		default:
			slog.Error("consume credential failed", "owner_id", ownerID, "err", err)
			return "", fmt.Errorf("consume credential: %w", domain.ErrStoreUnavailable)
		}
	}
	slog.Info("credential redeemed", "owner_id", ownerID, "credential_id", cred.CredentialID)
	return cred.Email, nil
}

func (s *service) render(req IssueRequest, value string) (subject, body string) {
	expires := req.TTL.Round(time.Second)
	if req.Format == otp.FormatToken && req.Channel != ChannelSMS {
		link := fmt.Sprintf("%s/verify?owner=%s&token=%s",
			s.policy.LinkBaseURL, url.QueryEscape(req.OwnerID), url.QueryEscape(value))
		body = fmt.Sprintf(
			"<p>Please verify your email by clicking the link below:</p>\r\n"+
				"<a href=%q>Verify Email</a>\r\n"+
				"<p>This link expires in %s.</p>", link, expires)
		return "Verify your email", body
	}
	return "Your verification code", fmt.Sprintf("Your verification code is %s. It expires in %s.", value, expires)
}

func (s *service) deliver(ctx context.Context, req IssueRequest, subject, body string) error {
	if req.Channel == ChannelSMS {
		// The SMS gateway is optional at startup; without it the issuance
		// still stands and the failure is reported like any other bounce.
		if s.sms == nil {
			return errors.New("sms sender not configured")
		}
		return s.sms.SendSMS(ctx, req.Phone, body)
	}
	return s.mailer.SendEmail(ctx, req.Email, subject, body)
}
