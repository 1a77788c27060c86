package http

import (
	"github.com/verimail/internal/application/verification"
)

// Deps holds all infrastructure dependencies for the router. The store and
// delivery gateways are injected as the interfaces the core requires, so the
// composition root owns their lifecycle.
type Deps struct {
	Store     verification.Store
	Mailer    verification.Mailer
	SMSSender verification.SMSSender
}
