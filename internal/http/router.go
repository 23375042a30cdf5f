package http

import (
	"net/http"
	"time"

	"bunnyfocus/internal/auth"
	"bunnyfocus/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type API struct {
	Service *service.Service
	Auth    *auth.Manager

	// ChatLimiter and LoginLimiter throttle /chat and /auth. Nil disables
	// throttling.
	ChatLimiter  *RateLimiter
	LoginLimiter *RateLimiter
	// TrustProxy reads the client address from forwarding headers.
	TrustProxy bool

	// ProfileID is used for every request when auth is disabled.
	ProfileID string
	Origins   []string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if a.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		if a.LoginLimiter != nil {
			r.Use(a.LoginLimiter.Limit("login"))
		}
		r.Post("/login", a.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Get("/", a.handleDashboard)
		r.Get("/profile", a.handleProfile)
		r.Post("/complete", a.handleComplete)
		r.Get("/options", a.handleOptions)
		r.Post("/claim", a.handleClaim)
		r.Post("/select", a.handleSelect)
		r.Get("/catalog", a.handleCatalog)
		r.Get("/settings", a.handleGetSettings)
		r.Put("/settings", a.handleUpdateSettings)

		r.Group(func(r chi.Router) {
			if a.ChatLimiter != nil {
				r.Use(a.ChatLimiter.Limit("chat"))
			}
			r.Post("/chat", a.handleChat)
		})
	})

	return r
}
