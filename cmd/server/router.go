package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-notes/internal/api"
	apiMiddleware "github.com/phrazzld/scry-notes/internal/api/middleware"
	"github.com/phrazzld/scry-notes/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	deckHandler := api.NewDeckHandler(app.deckService, app.studyService, app.logger)
	studyHandler := api.NewStudyHandler(app.studyService, app.logger)

	r.Route("/api", func(r chi.Router) {
		api.RegisterRoutes(r, deckHandler, studyHandler)
	})

	r.Get("/health", app.health)

	return r
}

// health reports liveness and, when a database is configured, reachability.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "store": "memory"}
	if app.db != nil {
		status["store"] = "postgres"
		if err := app.db.PingContext(r.Context()); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}
