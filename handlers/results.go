// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-assign/cliparse"
	"github.com/danielhkuo/quickly-assign/middleware"
	"github.com/danielhkuo/quickly-assign/models"
)

var errNoSnapshot = errors.New("closed allocation has no snapshot")

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// loadSnapshot reads the final snapshot of a closed allocation.
func loadSnapshot(q queryer, allocation models.Allocation) (models.ResultSnapshot, error) {
	if allocation.FinalSnapshotID == nil {
		return models.ResultSnapshot{}, errNoSnapshot
	}

	var payload string
	err := q.QueryRow(`
		SELECT payload FROM result_snapshot WHERE id = $1
	`, *allocation.FinalSnapshotID).Scan(&payload)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var snapshot models.ResultSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("failed to parse snapshot payload: %w", err)
	}
	return snapshot, nil
}

// GetAllocation handles GET /allocations/{slug}
// Returns allocation details and choices, but NOT assignments
func (h *ResultsHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	allocation, err := allocationBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	choices, err := listChoices(h.db, allocation.ID)
	if err != nil {
		slog.Error("failed to list choices", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AllocationWithChoices{
		Allocation: allocation,
		Choices:    choices,
	})
}

// GetResults handles GET /allocations/{slug}/results
// Returns 403 until the allocation is closed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	allocation, err := allocationBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if allocation.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the allocation is closed")
		return
	}

	snapshot, err := loadSnapshot(h.db, allocation)
	if err != nil {
		slog.Error("failed to load snapshot", "slug", shareSlug, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	// The raw result is keyed by participant ID; the public view only
	// carries display names.
	snapshot.Result = nil

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"allocation": allocation,
		"snapshot":   snapshot,
	})
}

// GetParticipantCount handles GET /allocations/{slug}/participant-count
// Visible while the allocation is open
func (h *ResultsHandler) GetParticipantCount(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var allocationID string
	err := h.db.QueryRow(`
		SELECT id FROM allocation WHERE share_slug = $1
	`, shareSlug).Scan(&allocationID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	joined, rated, err := countParticipants(h.db, allocationID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ParticipantCountResponse{
		ParticipantCount: joined,
		RatedCount:       rated,
	})
}

// GetPreview handles GET /allocations/{slug}/preview
// Compact summary for link previews
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var allocationID, title, status string
	err := h.db.QueryRow(`
		SELECT id, title, status FROM allocation WHERE share_slug = $1
	`, shareSlug).Scan(&allocationID, &title, &status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var choiceCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM choice WHERE allocation_id = $1
	`, allocationID).Scan(&choiceCount)
	if err != nil {
		slog.Error("failed to count choices", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	joined, _, err := countParticipants(h.db, allocationID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AllocationPreviewResponse{
		Title:            title,
		Status:           status,
		ChoiceCount:      choiceCount,
		ParticipantCount: joined,
	})
}
