package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/verimail/internal/application/verification"
	"github.com/verimail/internal/config"
	"github.com/verimail/internal/transport/http/handler"
	appmiddleware "github.com/verimail/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — both endpoints are public and hand
	// out or consume secrets, so they get the per-IP guard.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	verifySvc := verification.NewService(verification.ServiceDeps{
		Store:     deps.Store,
		Mailer:    deps.Mailer,
		SMSSender: deps.SMSSender,
		Policy:    cfg.Verify,
	})

	healthH := handler.NewHealthHandler()
	verifyH := handler.NewVerificationHandler(verifySvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/verifications", verifyH.Issue)
		r.With(sensitiveRL.Limit).Post("/verifications/redeem", verifyH.Redeem)
	})

	return r
}
