// Package server wires the proxy's HTTP surface: route table, CORS, and
// per-request dispatch between translation and passthrough handling.
package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/outpostai/claudeproxy/internal/config"
	"github.com/outpostai/claudeproxy/internal/forward"
	"github.com/outpostai/claudeproxy/internal/logging"
)

// App holds the dependencies shared by every handler.
type App struct {
	Config  *config.Config
	Client  *forward.Client
	Logger  *logging.Logger
	Version string
}

// NewRouter builds the proxy's route table.
func NewRouter(app *App) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(300 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/v1/messages", app.handleMessages)
	r.Get("/health", app.handleHealth)
	r.Get("/v1/models", app.handleModels)

	return r
}
