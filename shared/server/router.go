package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/gauntlet-service/shared/dto"
)

// RouterOptions describes the service exposed by NewRouter.
type RouterOptions struct {
	Service   string
	Version   string
	DataStore string
	// Timeout bounds every request; zero means 60s.
	Timeout time.Duration
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
func NewRouter(opts RouterOptions, register func(r chi.Router)) *chi.Mux {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	version := opts.Version
	if version == "" {
		version = "v0.0.1"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.HealthResponse{
			Status:    "ok",
			Service:   opts.Service,
			Version:   version,
			DataStore: opts.DataStore,
		})
	})

	// The websocket route must not sit behind the timeout middleware, so
	// registrations get the bare router and opt in via WithTimeout.
	if register != nil {
		register(r)
	}

	return r
}

// WithTimeout wraps a route group with the request timeout middleware.
func WithTimeout(r chi.Router, timeout time.Duration) chi.Router {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return r.With(middleware.Timeout(timeout))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
