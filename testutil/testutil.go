// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil holds fixtures shared by the HTTP handler tests.
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-assign/auth"
	"github.com/danielhkuo/quickly-assign/cliparse"
	"github.com/danielhkuo/quickly-assign/db"
	"github.com/danielhkuo/quickly-assign/matching"
	"github.com/danielhkuo/quickly-assign/models"
)

// SetupTestDB opens a fresh SQLite database in a temp dir with the full
// schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "quickly-assign.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        "file:test.db",
		DatabaseType:       db.TypeSQLite,
		AdminKeySalt:       "test-admin-salt",
		AllocationSlugSalt: "test-slug-salt",
		Algorithm:          matching.NameDeferredAcceptance,
		MaxIterations:      matching.DefaultMaxIterations,
	}
}

// CreateTestAllocation inserts an allocation and returns its ID, admin key
// and share slug (empty for drafts).
// status should be "draft", "open", or "closed"
func CreateTestAllocation(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (allocationID, adminKey, shareSlug string) {
	t.Helper()

	allocationID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(allocationID, cfg.AdminKeySalt)

	var slug *string
	if status == models.StatusOpen || status == models.StatusClosed {
		s := auth.GenerateShareSlug(allocationID, cfg.AllocationSlugSalt)
		slug = &s
		shareSlug = s
	}

	var closedAt *time.Time
	if status == models.StatusClosed {
		now := time.Now()
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO allocation (id, title, description, creator_name, method, status,
		                        max_score, max_unwilling, share_slug, closed_at, created_at)
		VALUES ($1, 'Test Allocation', 'A test allocation', 'TestUser', $2, $3, $4, $5, $6, $7, $8)
	`, allocationID, matching.NameDeferredAcceptance, status,
		models.DefaultMaxScore, models.DefaultMaxUnwilling, slug, closedAt, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test allocation: %v", err)
	}

	return allocationID, adminKey, shareSlug
}

// AddTestChoice adds a choice and returns its ID
func AddTestChoice(t *testing.T, conn *sql.DB, allocationID, label string, minSize, maxSize int, optional bool) string {
	t.Helper()

	choiceID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO choice (id, allocation_id, label, min_size, max_size, optional)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, choiceID, allocationID, label, minSize, maxSize, optional)
	if err != nil {
		t.Fatalf("Failed to create test choice: %v", err)
	}

	return choiceID
}

// CreateTestParticipant joins name to the allocation and returns the
// participant ID and token
func CreateTestParticipant(t *testing.T, conn *sql.DB, allocationID, name string) (participantID, token string) {
	t.Helper()

	participantID, _ = auth.GenerateID(12)
	token, _ = auth.GenerateParticipantToken()
	_, err := conn.Exec(`
		INSERT INTO participant (id, allocation_id, name, token, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, participantID, allocationID, name, token, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}

	return participantID, token
}

// SubmitTestRatings stores scores (choice ID -> score) for a participant
func SubmitTestRatings(t *testing.T, conn *sql.DB, participantID string, scores map[string]int) {
	t.Helper()

	for choiceID, score := range scores {
		_, err := conn.Exec(`
			INSERT INTO rating (participant_id, choice_id, score, updated_at)
			VALUES ($1, $2, $3, $4)
		`, participantID, choiceID, score, time.Now())
		if err != nil {
			t.Fatalf("Failed to create test rating: %v", err)
		}
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
