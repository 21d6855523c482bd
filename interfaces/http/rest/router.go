// Package rest assembles the HTTP router for the service.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"loupe-backend/infrastructure/di"
	"loupe-backend/interfaces/http/rest/handlers"
	"loupe-backend/interfaces/http/rest/middleware"
	"loupe-backend/pkg/common"
)

// NewRouter builds the full route tree.
func NewRouter(container *di.Container) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(container.Logger))

	if container.Config.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := container.Ready(req.Context()); err != nil {
			common.RespondError(w, http.StatusServiceUnavailable, "NOT_READY", "backing store unavailable")
			return
		}
		common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	projectHandler := handlers.NewProjectHandler(container.CommandBus, container.QueryBus, container.Projects, container.Logger)
	researchHandler := handlers.NewResearchHandler(container.Orchestrator, container.Logger)
	similarityHandler := handlers.NewSimilarityHandler(container.QueryBus, container.Logger)
	reportHandler := handlers.NewReportHandler(container.Reports, container.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticator(container.JWTValidator, container.Logger))

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{projectID}", projectHandler.Get)
			r.Delete("/{projectID}", projectHandler.Delete)
			r.Get("/{projectID}/nodes", projectHandler.Nodes)
		})

		r.Post("/research", researchHandler.Research)

		r.Route("/similar", func(r chi.Router) {
			r.Post("/sources", similarityHandler.SimilarSources)
			r.Post("/answers", similarityHandler.SimilarAnswers)
			r.Post("/guides", similarityHandler.SimilarGuides)
		})

		r.Post("/reports", reportHandler.Generate)
		r.Post("/summaries", reportHandler.Summarize)
	})

	return r
}
