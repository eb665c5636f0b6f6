// Package server assembles the HTTP router and middleware chain.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "users-api/backend/internal/auth/handler"
	healthhandler "users-api/backend/internal/health/handler"
	"users-api/backend/internal/security"
	"users-api/backend/internal/server/middleware"
	userhandler "users-api/backend/internal/user/handler"
)

// Deps holds everything the router needs.
type Deps struct {
	Auth         *authhandler.Handler
	Users        *userhandler.Handler
	Health       *healthhandler.Handler
	Tokens       *security.TokenProvider
	Logger       *slog.Logger
	LoginLimiter *middleware.RateLimiter
	Registry     *prometheus.Registry
}

// NewRouter builds the chi router: public auth routes (login throttled),
// protected user routes behind the Bearer middleware, plus health and metrics.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLog(d.Logger))
	if d.Registry != nil {
		r.Use(middleware.Metrics(d.Registry))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", d.Auth.Signup)
		r.With(middleware.LimitByIP(d.LoginLimiter)).Post("/login", d.Auth.Login)
		r.Post("/refresh", d.Auth.Refresh)
		r.Post("/logout", d.Auth.Logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Tokens))
		r.Get("/", d.Users.List)
		r.Get("/me", d.Users.Me)
		r.Patch("/me", d.Users.UpdateProfile)
		r.Delete("/me", d.Users.DeleteAccount)
		r.Patch("/me/password", d.Users.ChangePassword)
	})

	r.Get("/healthz", d.Health.Check)
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

// NewHTTPServer wraps the router in an http.Server with sane timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
