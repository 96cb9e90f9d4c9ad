// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielhkuo/quickly-assign/auth"
	"github.com/danielhkuo/quickly-assign/cliparse"
	"github.com/danielhkuo/quickly-assign/db"
	"github.com/danielhkuo/quickly-assign/middleware"
	"github.com/danielhkuo/quickly-assign/models"
)

type ParticipantHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewParticipantHandler(db *sql.DB, cfg cliparse.Config) *ParticipantHandler {
	return &ParticipantHandler{db: db, cfg: cfg}
}

// Join handles POST /allocations/{slug}/join
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var req models.JoinRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be 2-50 characters")
		return
	}

	var allocationID, status string
	err := h.db.QueryRow(`
		SELECT id, status FROM allocation WHERE share_slug = $1
	`, shareSlug).Scan(&allocationID, &status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Allocation is not open")
		return
	}

	participantID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate participant ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join")
		return
	}
	token, err := auth.GenerateParticipantToken()
	if err != nil {
		slog.Error("failed to generate participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join")
		return
	}

	// UNIQUE (allocation_id, name) rejects duplicates
	_, err = h.db.Exec(`
		INSERT INTO participant (id, allocation_id, name, token, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, participantID, allocationID, name, token, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Name already taken")
			return
		}
		slog.Error("failed to insert participant", "error", err, "allocation_id", allocationID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join")
		return
	}

	slog.Info("participant joined", "allocation_id", allocationID, "participant_id", participantID)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinResponse{
		ParticipantToken: token,
	})
}

// participant resolves the slug and X-Participant-Token header. It writes
// the error response itself and reports whether the caller may continue.
func (h *ParticipantHandler) participant(w http.ResponseWriter, r *http.Request) (models.Allocation, models.Participant, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Allocation{}, models.Participant{}, false
	}

	token := r.Header.Get("X-Participant-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return models.Allocation{}, models.Participant{}, false
	}
	if err := auth.ValidateParticipantToken(token); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token")
		return models.Allocation{}, models.Participant{}, false
	}

	allocation, err := allocationBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return models.Allocation{}, models.Participant{}, false
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Allocation{}, models.Participant{}, false
	}

	p, err := participantByToken(h.db, allocation.ID, token)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid participant token for this allocation")
		return models.Allocation{}, models.Participant{}, false
	}
	if err != nil {
		slog.Error("failed to verify participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Allocation{}, models.Participant{}, false
	}

	return allocation, p, true
}

// validateScores checks that scores cover every choice exactly, lie in
// [0, maxScore] and contain at most maxUnwilling zeros.
func validateScores(scores map[string]int, choices []models.Choice, maxScore, maxUnwilling int) error {
	valid := make(map[string]bool, len(choices))
	for _, c := range choices {
		valid[c.ID] = true
	}

	unwilling := 0
	for choiceID, score := range scores {
		if !valid[choiceID] {
			return fmt.Errorf("invalid choice_id: %s", choiceID)
		}
		if score < 0 || score > maxScore {
			return fmt.Errorf("score for %s must be between 0 and %d", choiceID, maxScore)
		}
		if score == 0 {
			unwilling++
		}
	}
	if len(scores) != len(choices) {
		return fmt.Errorf("scores must rate all %d choices", len(choices))
	}
	if unwilling > maxUnwilling {
		return fmt.Errorf("at most %d choices may be rated 0", maxUnwilling)
	}
	return nil
}

// SubmitRatings handles POST /allocations/{slug}/ratings. Resubmitting
// replaces the earlier ratings.
func (h *ParticipantHandler) SubmitRatings(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRatingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Scores) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "scores cannot be empty")
		return
	}

	allocation, p, ok := h.participant(w, r)
	if !ok {
		return
	}

	if allocation.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Allocation is not open")
		return
	}

	choices, err := listChoices(h.db, allocation.ID)
	if err != nil {
		slog.Error("failed to list choices", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := validateScores(req.Scores, choices, allocation.MaxScore, allocation.MaxUnwilling); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM rating WHERE participant_id = $1`, p.ID)
	if err != nil {
		slog.Error("failed to delete old ratings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ratings")
		return
	}
	replaced, _ := res.RowsAffected()

	now := time.Now()
	for choiceID, score := range req.Scores {
		_, err = tx.Exec(`
			INSERT INTO rating (participant_id, choice_id, score, updated_at)
			VALUES ($1, $2, $3, $4)
		`, p.ID, choiceID, score, now)
		if err != nil {
			slog.Error("failed to insert rating", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ratings")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save ratings")
		return
	}

	message := "Ratings submitted successfully"
	if replaced > 0 {
		message = "Ratings updated successfully"
	}

	slog.Info("ratings submitted", "allocation_id", allocation.ID, "participant_id", p.ID, "is_update", replaced > 0)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitRatingsResponse{
		ParticipantID: p.ID,
		Message:       message,
	})
}

// GetMyRatings handles GET /allocations/{slug}/my-ratings
func (h *ParticipantHandler) GetMyRatings(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.participant(w, r)
	if !ok {
		return
	}

	scores, err := ratingsOf(h.db, p.ID)
	if err != nil {
		slog.Error("failed to load ratings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MyRatingsResponse{
		Name:   p.Name,
		Scores: scores,
	})
}

// GetMyAssignment handles GET /allocations/{slug}/my-assignment. The
// assignment is sealed until the allocation is closed.
func (h *ParticipantHandler) GetMyAssignment(w http.ResponseWriter, r *http.Request) {
	allocation, p, ok := h.participant(w, r)
	if !ok {
		return
	}

	if allocation.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Assignments are hidden until the allocation is closed")
		return
	}

	snapshot, err := loadSnapshot(h.db, allocation)
	if err != nil {
		slog.Error("failed to load snapshot", "allocation_id", allocation.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	resp := models.MyAssignmentResponse{Name: p.Name}
	if snapshot.Result != nil {
		if choiceID, ok := snapshot.Result.ChoiceOf(p.ID); ok {
			choices, err := listChoices(h.db, allocation.ID)
			if err != nil {
				slog.Error("failed to list choices", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
			for i := range choices {
				if choices[i].ID == choiceID {
					resp.Choice = &choices[i]
					break
				}
			}
			resp.Assigned = true
			if pos, ok := snapshot.Result.Positions[p.ID]; ok && pos >= 0 {
				resp.PreferenceRank = pos + 1
			}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
