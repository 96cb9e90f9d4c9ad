// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quickly-assign/cliparse"
	"github.com/danielhkuo/quickly-assign/handlers"
	"github.com/danielhkuo/quickly-assign/metrics"
	"github.com/danielhkuo/quickly-assign/middleware"
)

// NewRouter wires every endpoint. Solve metrics are registered on reg and
// served from GET /metrics; a nil reg gets a private registry.
func NewRouter(db *sql.DB, cfg cliparse.Config, reg *prometheus.Registry) *http.ServeMux {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mux := http.NewServeMux()

	// Initialize handlers
	allocationHandler := handlers.NewAllocationHandler(db, cfg, metrics.NewPrometheus(reg, ""))
	participantHandler := handlers.NewParticipantHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Allocation management (admin operations)
	mux.HandleFunc("POST /allocations", middleware.WithLogging(allocationHandler.CreateAllocation))
	mux.HandleFunc("GET /allocations/{id}/admin", middleware.WithLogging(allocationHandler.GetAllocationAdmin))
	mux.HandleFunc("POST /allocations/{id}/choices", middleware.WithLogging(allocationHandler.AddChoice))
	mux.HandleFunc("POST /allocations/{id}/publish", middleware.WithLogging(allocationHandler.PublishAllocation))
	mux.HandleFunc("POST /allocations/{id}/close", middleware.WithLogging(allocationHandler.CloseAllocation))

	// Participant operations (public)
	mux.HandleFunc("POST /allocations/{slug}/join", middleware.WithLogging(participantHandler.Join))
	mux.HandleFunc("POST /allocations/{slug}/ratings", middleware.WithLogging(participantHandler.SubmitRatings))
	mux.HandleFunc("GET /allocations/{slug}/my-ratings", middleware.WithLogging(participantHandler.GetMyRatings))
	mux.HandleFunc("GET /allocations/{slug}/my-assignment", middleware.WithLogging(participantHandler.GetMyAssignment))

	// Results retrieval (public, sealed until close)
	mux.HandleFunc("GET /allocations/{slug}", middleware.WithLogging(resultsHandler.GetAllocation))
	mux.HandleFunc("GET /allocations/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /allocations/{slug}/participant-count", middleware.WithLogging(resultsHandler.GetParticipantCount))
	mux.HandleFunc("GET /allocations/{slug}/preview", middleware.WithLogging(resultsHandler.GetPreview))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-assign API v1"))
	})

	return mux
}
