package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig contains the router's collaborators.
type RouterConfig struct {
	Accounts *AccountHandler
	Sessions SessionResolver
	Metrics  *Metrics
	Logger   zerolog.Logger
}

// NewRouter builds the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", handleHealth)

	// Public
	r.Post("/users", cfg.Accounts.Register)
	r.Post("/users/login", cfg.Accounts.Login)
	r.Get("/users/{id}/avatar", cfg.Accounts.GetAvatar)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Sessions))

		r.Post("/users/logout", cfg.Accounts.Logout)
		r.Post("/users/logoutAll", cfg.Accounts.LogoutAll)
		r.Get("/users/me", cfg.Accounts.Me)
		r.Patch("/users/me", cfg.Accounts.UpdateMe)
		r.Delete("/users/me", cfg.Accounts.DeleteMe)
		r.Post("/users/me/avatar", cfg.Accounts.UploadAvatar)
		r.Delete("/users/me/avatar", cfg.Accounts.DeleteAvatar)
	})

	return r
}

// handleHealth handles health check requests.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request handled")
		})
	}
}
