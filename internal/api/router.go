package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgpdata/emissions-backend/internal/api/handlers"
	"github.com/jgpdata/emissions-backend/internal/config"
	"github.com/jgpdata/emissions-backend/internal/middleware"
	"github.com/jgpdata/emissions-backend/internal/services"
)

func NewRouter(cfg config.Config, es *services.EmissionService, ss *services.StatsService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	eh := handlers.NewEmissionHandler(es)
	sh := handlers.NewStatsHandler(ss)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/emissions", eh.List)
		r.Get("/emissions/types", eh.Types)
		r.Get("/emissions/{id}", eh.Get)
		r.Put("/emissions/{id}", eh.Update)
		r.Get("/emissions/{id}/history", eh.History)

		r.Get("/stats", sh.Overview)
		r.Get("/stats/monthly-evolution", sh.MonthlyEvolution)
	})

	return r
}
