// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-assign/models"
	"github.com/danielhkuo/quickly-assign/testutil"
)

func joinRequest(h *ParticipantHandler, slug, name string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/allocations/"+slug+"/join", models.JoinRequest{Name: name}, nil)
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	h.Join(w, req)
	return w
}

func TestJoin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)

	tests := []struct {
		name         string
		participant  string
		expectedCode int
	}{
		{"valid name", "Alice", http.StatusCreated},
		{"name is trimmed", "  Bob  ", http.StatusCreated},
		{"empty name", "", http.StatusBadRequest},
		{"too short", "A", http.StatusBadRequest},
		{"too long", strings.Repeat("x", 51), http.StatusBadRequest},
		{"duplicate name", "Alice", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := joinRequest(handler, slug, tt.participant)
			testutil.AssertStatus(t, w, tt.expectedCode)
			if tt.expectedCode == http.StatusCreated {
				var resp models.JoinResponse
				testutil.AssertJSON(t, w, &resp)
				if len(resp.ParticipantToken) != 36 {
					t.Errorf("Expected UUID token, got %q", resp.ParticipantToken)
				}
			}
		})
	}

	var name string
	err := db.QueryRow(`SELECT name FROM participant WHERE allocation_id = $1 AND name = 'Bob'`, allocationID).Scan(&name)
	if err != nil {
		t.Errorf("Expected trimmed name Bob to be stored: %v", err)
	}

	t.Run("unknown slug", func(t *testing.T) {
		testutil.AssertStatus(t, joinRequest(handler, "nope", "Carol"), http.StatusNotFound)
	})
}

func TestJoinClosedAllocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	_, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusClosed)
	testutil.AssertStatus(t, joinRequest(handler, slug, "Alice"), http.StatusConflict)
}

func TestSameNameInDifferentAllocations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	_, _, slug1 := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	_, _, slug2 := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)

	testutil.AssertStatus(t, joinRequest(handler, slug1, "Alice"), http.StatusCreated)
	testutil.AssertStatus(t, joinRequest(handler, slug2, "Alice"), http.StatusCreated)
}

func ratingsRequest(h *ParticipantHandler, slug, token string, scores map[string]int) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/allocations/"+slug+"/ratings",
		models.SubmitRatingsRequest{Scores: scores},
		map[string]string{"X-Participant-Token": token})
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	h.SubmitRatings(w, req)
	return w
}

func TestSubmitRatings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestChoice(t, db, allocationID, "A", 0, 3, false)
	b := testutil.AddTestChoice(t, db, allocationID, "B", 0, 3, false)
	c := testutil.AddTestChoice(t, db, allocationID, "C", 0, 3, true)
	participantID, token := testutil.CreateTestParticipant(t, db, allocationID, "Alice")

	// Token from another allocation
	otherID, _, _ := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	_, foreignToken := testutil.CreateTestParticipant(t, db, otherID, "Mallory")

	tests := []struct {
		name         string
		token        string
		scores       map[string]int
		expectedCode int
	}{
		{"missing token", "", map[string]int{a: 5, b: 3, c: 1}, http.StatusUnauthorized},
		{"malformed token", "abc", map[string]int{a: 5, b: 3, c: 1}, http.StatusUnauthorized},
		{"token of another allocation", foreignToken, map[string]int{a: 5, b: 3, c: 1}, http.StatusUnauthorized},
		{"empty scores", token, map[string]int{}, http.StatusBadRequest},
		{"score above max", token, map[string]int{a: 6, b: 3, c: 1}, http.StatusBadRequest},
		{"negative score", token, map[string]int{a: -1, b: 3, c: 1}, http.StatusBadRequest},
		{"too many unwilling", token, map[string]int{a: 5, b: 0, c: 0}, http.StatusBadRequest},
		{"missing a choice", token, map[string]int{a: 5, b: 3}, http.StatusBadRequest},
		{"unknown choice", token, map[string]int{a: 5, b: 3, "zzz": 1}, http.StatusBadRequest},
		{"valid with one unwilling", token, map[string]int{a: 5, b: 3, c: 0}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ratingsRequest(handler, slug, tt.token, tt.scores)
			testutil.AssertStatus(t, w, tt.expectedCode)
		})
	}

	scores, err := ratingsOf(db, participantID)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 3 || scores[a] != 5 || scores[b] != 3 || scores[c] != 0 {
		t.Errorf("Unexpected stored scores: %v", scores)
	}
}

func TestUpdateRatings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestChoice(t, db, allocationID, "A", 0, 3, false)
	b := testutil.AddTestChoice(t, db, allocationID, "B", 0, 3, false)
	participantID, token := testutil.CreateTestParticipant(t, db, allocationID, "Alice")

	w := ratingsRequest(handler, slug, token, map[string]int{a: 5, b: 1})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var first models.SubmitRatingsResponse
	testutil.AssertJSON(t, w, &first)
	if first.ParticipantID != participantID || !strings.Contains(first.Message, "submitted") {
		t.Errorf("Unexpected first response: %+v", first)
	}

	w = ratingsRequest(handler, slug, token, map[string]int{a: 2, b: 4})
	testutil.AssertStatus(t, w, http.StatusCreated)
	var second models.SubmitRatingsResponse
	testutil.AssertJSON(t, w, &second)
	if !strings.Contains(second.Message, "updated") {
		t.Errorf("Expected update message, got %q", second.Message)
	}

	scores, err := ratingsOf(db, participantID)
	if err != nil {
		t.Fatal(err)
	}
	if scores[a] != 2 || scores[b] != 4 {
		t.Errorf("Expected replaced scores, got %v", scores)
	}
}

func TestSubmitRatingsToClosedAllocation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusClosed)
	a := testutil.AddTestChoice(t, db, allocationID, "A", 0, 3, false)
	_, token := testutil.CreateTestParticipant(t, db, allocationID, "Alice")

	testutil.AssertStatus(t, ratingsRequest(handler, slug, token, map[string]int{a: 5}), http.StatusConflict)
}

func TestGetMyRatings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestChoice(t, db, allocationID, "A", 0, 3, false)
	participantID, token := testutil.CreateTestParticipant(t, db, allocationID, "Alice")
	testutil.SubmitTestRatings(t, db, participantID, map[string]int{a: 4})

	req := testutil.MakeRequest("GET", "/allocations/"+slug+"/my-ratings", nil,
		map[string]string{"X-Participant-Token": token})
	req.SetPathValue("slug", slug)
	w := httptest.NewRecorder()
	handler.GetMyRatings(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.MyRatingsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Name != "Alice" || resp.Scores[a] != 4 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestGetMyAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	admin := NewAllocationHandler(db, cfg, nil)
	handler := NewParticipantHandler(db, cfg)

	f := newCloseFixture(t, admin)

	myAssignment := func(token string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/allocations/"+f.slug+"/my-assignment", nil,
			map[string]string{"X-Participant-Token": token})
		req.SetPathValue("slug", f.slug)
		w := httptest.NewRecorder()
		handler.GetMyAssignment(w, req)
		return w
	}

	// Sealed while open
	testutil.AssertStatus(t, myAssignment(f.tokens["Carol"]), http.StatusForbidden)

	testutil.AssertStatus(t, closeRequest(admin, f.allocationID, f.adminKey, nil), http.StatusOK)

	w := myAssignment(f.tokens["Carol"])
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.MyAssignmentResponse
	testutil.AssertJSON(t, w, &resp)

	if !resp.Assigned || resp.Choice == nil {
		t.Fatalf("Expected Carol to be assigned, got %+v", resp)
	}
	if resp.Choice.ID != f.choiceB {
		t.Errorf("Expected Carol in B, got %s", resp.Choice.Label)
	}
	if resp.PreferenceRank != 1 {
		t.Errorf("Expected first preference, got %d", resp.PreferenceRank)
	}

	w = myAssignment(f.tokens["Alice"])
	testutil.AssertStatus(t, w, http.StatusOK)
	var alice models.MyAssignmentResponse
	testutil.AssertJSON(t, w, &alice)
	if alice.Choice == nil || alice.Choice.ID != f.choiceA || alice.Choice.Label != "A" {
		t.Errorf("Expected Alice in A, got %+v", alice.Choice)
	}

	t.Run("joined without rating is unassigned", func(t *testing.T) {
		_, token := testutil.CreateTestParticipant(t, db, f.allocationID, "Eve")
		w := myAssignment(token)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.MyAssignmentResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Assigned {
			t.Errorf("Expected Eve to be unassigned, got %+v", resp)
		}
	})
}
