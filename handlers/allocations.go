// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-assign/auth"
	"github.com/danielhkuo/quickly-assign/cliparse"
	"github.com/danielhkuo/quickly-assign/matching"
	"github.com/danielhkuo/quickly-assign/metrics"
	"github.com/danielhkuo/quickly-assign/middleware"
	"github.com/danielhkuo/quickly-assign/models"
)

// Limits on admin-supplied values
const (
	maxTitleLength = 200
	maxLabelLength = 100
	maxScoreLimit  = 100
)

type AllocationHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics metrics.Recorder
}

// NewAllocationHandler creates the admin handler. A nil recorder discards
// solve metrics.
func NewAllocationHandler(db *sql.DB, cfg cliparse.Config, rec metrics.Recorder) *AllocationHandler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AllocationHandler{db: db, cfg: cfg, metrics: rec}
}

// authorize checks X-Admin-Key against the allocation ID in the path and
// writes the error response itself.
func (h *AllocationHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	allocationID := r.PathValue("id")
	if allocationID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "allocation_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(allocationID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return allocationID, true
}

// CreateAllocation handles POST /allocations
func (h *AllocationHandler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAllocationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Title) > maxTitleLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is too long")
		return
	}
	if req.CreatorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	}

	maxScore := models.DefaultMaxScore
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	if maxScore < 1 || maxScore > maxScoreLimit {
		middleware.ErrorResponse(w, http.StatusBadRequest, "max_score must be between 1 and 100")
		return
	}

	maxUnwilling := models.DefaultMaxUnwilling
	if req.MaxUnwilling != nil {
		maxUnwilling = *req.MaxUnwilling
	}
	if maxUnwilling < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "max_unwilling cannot be negative")
		return
	}

	allocationID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate allocation ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create allocation")
		return
	}

	adminKey := auth.GenerateAdminKey(allocationID, h.cfg.AdminKeySalt)

	_, err = h.db.Exec(`
		INSERT INTO allocation (id, title, description, creator_name, method, status,
		                        max_score, max_unwilling, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, allocationID, req.Title, req.Description, req.CreatorName, h.cfg.Algorithm,
		models.StatusDraft, maxScore, maxUnwilling, time.Now())
	if err != nil {
		slog.Error("failed to insert allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create allocation")
		return
	}

	slog.Info("allocation created",
		"request_id", middleware.RequestID(r.Context()),
		"allocation_id", allocationID,
		"creator", req.CreatorName,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateAllocationResponse{
		AllocationID: allocationID,
		AdminKey:     adminKey,
	})
}

// AddChoice handles POST /allocations/{id}/choices
func (h *AllocationHandler) AddChoice(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddChoiceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch {
	case req.Label == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "label is required")
		return
	case len(req.Label) > maxLabelLength:
		middleware.ErrorResponse(w, http.StatusBadRequest, "label is too long")
		return
	case req.MinSize < 0:
		middleware.ErrorResponse(w, http.StatusBadRequest, "min_size cannot be negative")
		return
	case req.MaxSize < 1:
		middleware.ErrorResponse(w, http.StatusBadRequest, "max_size must be at least 1")
		return
	case req.MaxSize < req.MinSize:
		middleware.ErrorResponse(w, http.StatusBadRequest, "max_size cannot be less than min_size")
		return
	}

	var status string
	err := h.db.QueryRow("SELECT status FROM allocation WHERE id = $1", allocationID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add choices to non-draft allocation")
		return
	}

	choiceID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate choice ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create choice")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO choice (id, allocation_id, label, min_size, max_size, optional)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, choiceID, allocationID, req.Label, req.MinSize, req.MaxSize, req.Optional)
	if err != nil {
		slog.Error("failed to insert choice", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create choice")
		return
	}

	slog.Info("choice added", "allocation_id", allocationID, "choice_id", choiceID,
		"min_size", req.MinSize, "max_size", req.MaxSize, "optional", req.Optional)

	middleware.JSONResponse(w, http.StatusCreated, models.AddChoiceResponse{
		ChoiceID: choiceID,
	})
}

// PublishAllocation handles POST /allocations/{id}/publish
func (h *AllocationHandler) PublishAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var status string
	var choiceCount int
	err := h.db.QueryRow(`
		SELECT a.status, COUNT(c.id)
		FROM allocation a
		LEFT JOIN choice c ON a.id = c.allocation_id
		WHERE a.id = $1
		GROUP BY a.status
	`, allocationID).Scan(&status, &choiceCount)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Allocation is not in draft status")
		return
	}
	if choiceCount < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Allocation must have at least 1 choice")
		return
	}

	shareSlug := auth.GenerateShareSlug(allocationID, h.cfg.AllocationSlugSalt)

	_, err = h.db.Exec(`
		UPDATE allocation
		SET status = $1, share_slug = $2
		WHERE id = $3
	`, models.StatusOpen, shareSlug, allocationID)
	if err != nil {
		slog.Error("failed to publish allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish allocation")
		return
	}

	slog.Info("allocation published", "allocation_id", allocationID, "share_slug", shareSlug)

	middleware.JSONResponse(w, http.StatusOK, models.PublishAllocationResponse{
		ShareSlug: shareSlug,
		ShareURL:  "/allocations/" + shareSlug,
	})
}

// GetAllocationAdmin handles GET /allocations/{id}/admin
func (h *AllocationHandler) GetAllocationAdmin(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	allocation, err := allocationByID(h.db, allocationID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Allocation not found")
		return
	}
	if err != nil {
		slog.Error("failed to query allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	choices, err := listChoices(h.db, allocationID)
	if err != nil {
		slog.Error("failed to list choices", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	joined, rated, err := countParticipants(h.db, allocationID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AllocationAdminResponse{
		Allocation:       allocation,
		Choices:          choices,
		ParticipantCount: joined,
		RatedCount:       rated,
	})
}

// CloseAllocation handles POST /allocations/{id}/close. It solves the
// allocation, stores the snapshot and closes it in one transaction. A solve
// failure leaves the allocation open and answers 422.
func (h *AllocationHandler) CloseAllocation(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// The body is optional; an empty one (including an empty chunked one)
	// decodes to io.EOF.
	var req models.CloseAllocationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	seed := rand.Int63()
	if req.Seed != nil {
		seed = *req.Seed
	}

	matcher, err := matching.NewMatcher(h.cfg.Algorithm)
	if err != nil {
		slog.Error("invalid matching algorithm", "algorithm", h.cfg.Algorithm, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Invalid server configuration")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow("SELECT status FROM allocation WHERE id = $1", allocationID).Scan(&status)
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

	problem, err := LoadProblem(tx, allocationID)
	if err != nil {
		slog.Error("failed to load problem", "allocation_id", allocationID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	solver := matching.Solver{
		Matcher:       matcher,
		MaxIterations: h.cfg.MaxIterations,
		Logger:        slog.Default().With("allocation_id", allocationID),
	}
	start := time.Now()
	result, solveErr := solver.SolveSeed(problem, seed)
	stats := metrics.SolveStats{Outcome: solveOutcome(solveErr), Duration: time.Since(start)}
	if result != nil {
		stats.Iterations = result.Iterations
		stats.ClosedChoices = len(result.ClosedChoices)
		stats.PositionCounts = result.PositionCounts()
	}
	h.metrics.RecordSolve(stats)

	if solveErr != nil {
		slog.Warn("allocation could not be solved",
			"allocation_id", allocationID,
			"participants", len(problem.Participants),
			"seed", seed,
			"error", solveErr,
		)
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, solveErr.Error())
		return
	}

	choices, err := listChoices(tx, allocationID)
	if err != nil {
		slog.Error("failed to list choices", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	names, err := participantNames(tx, allocationID)
	if err != nil {
		slog.Error("failed to load participant names", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	snapshotID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate snapshot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}
	closedAt := time.Now()

	snapshot := buildSnapshot(result, choices, names)
	snapshot.ID = snapshotID
	snapshot.AllocationID = allocationID
	snapshot.Method = matcher.Name()
	snapshot.ComputedAt = closedAt
	snapshot.InputsHash = InputsHash(problem)

	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, allocation_id, method, computed_at, seed, inputs_hash, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, snapshotID, allocationID, snapshot.Method, closedAt, seed, snapshot.InputsHash, string(payload))
	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	res, err := tx.Exec(`
		UPDATE allocation
		SET status = $1, closed_at = $2, final_snapshot_id = $3, method = $4
		WHERE id = $5 AND status = $6
	`, models.StatusClosed, closedAt, snapshotID, snapshot.Method, allocationID, models.StatusOpen)
	if err != nil {
		slog.Error("failed to close allocation", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close allocation")
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Allocation is not open")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close allocation")
		return
	}

	slog.Info("allocation closed",
		"allocation_id", allocationID,
		"snapshot_id", snapshotID,
		"seed", seed,
		"iterations", result.Iterations,
		"closed_choices", len(result.ClosedChoices),
		"unassigned", len(result.Unassigned),
	)

	middleware.JSONResponse(w, http.StatusOK, models.CloseAllocationResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

// buildSnapshot turns a solver result into the stored, display-ready form.
func buildSnapshot(result *matching.Result, choices []models.Choice, names map[string]string) models.ResultSnapshot {
	closed := make(map[string]bool, len(result.ClosedChoices))
	for _, id := range result.ClosedChoices {
		closed[id] = true
	}

	displayNames := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			out = append(out, names[id])
		}
		return out
	}

	snapshot := models.ResultSnapshot{
		Seed:        result.Seed,
		Iterations:  result.Iterations,
		Assignments: make([]models.ChoiceAssignment, 0, len(choices)),
		Unassigned:  displayNames(result.Unassigned),
		Result:      result,
	}
	for _, c := range choices {
		snapshot.Assignments = append(snapshot.Assignments, models.ChoiceAssignment{
			ChoiceID:     c.ID,
			Label:        c.Label,
			Closed:       closed[c.ID],
			Capacity:     result.Capacities[c.ID],
			Participants: displayNames(result.Assignments[c.ID]),
		})
	}
	return snapshot
}

// solveOutcome maps a solver error to its metrics label.
func solveOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, matching.ErrInvalidProblem):
		return metrics.OutcomeInvalid
	case errors.Is(err, matching.ErrStructuralInfeasibility):
		return metrics.OutcomeInfeasible
	case errors.Is(err, matching.ErrUnsolvable):
		return metrics.OutcomeUnsolvable
	case errors.Is(err, matching.ErrIterationLimit):
		return metrics.OutcomeIterationLimit
	default:
		return metrics.OutcomeError
	}
}
