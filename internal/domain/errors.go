package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	// ErrInvalidInput marks malformed requests, rejected before any store access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig marks an unusable generator configuration (bad format or length).
	ErrInvalidConfig = errors.New("invalid config")
	// ErrStoreUnavailable marks an infrastructure failure; the caller may retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDeliveryFailed means the credential was persisted but the notification was not sent.
	// The credential stays redeemable; callers should resend rather than re-issue.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrRateLimited marks an issuance rejected by the resend cooldown.
	ErrRateLimited = errors.New("rate limited")

	// Terminal redemption outcomes. Never retried for the same credential value.
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("expired")
	ErrAlreadyConsumed = errors.New("already consumed")
)
