// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quickly-assign/models"
	"github.com/danielhkuo/quickly-assign/testutil"
)

// TestFullAllocationWorkflow tests the complete end-to-end workflow:
// 1. Create allocation
// 2. Add choices
// 3. Publish
// 4. Participants join
// 5. Participants submit ratings
// 6. Update ratings
// 7. Close
// 8. Verify results and individual assignments
func TestFullAllocationWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	rec := &recordingMetrics{}
	allocationHandler := NewAllocationHandler(db, cfg, rec)
	participantHandler := NewParticipantHandler(db, cfg)
	resultsHandler := NewResultsHandler(db, cfg)

	// Step 1: Create an allocation
	req := testutil.MakeRequest("POST", "/allocations", models.CreateAllocationRequest{
		Title:       "Club Fair",
		Description: "Pick your afternoon club",
		CreatorName: "Organizer",
	}, nil)
	w := httptest.NewRecorder()
	allocationHandler.CreateAllocation(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create allocation failed: %d - %s", w.Code, w.Body.String())
	}
	var createResp models.CreateAllocationResponse
	testutil.AssertJSON(t, w, &createResp)
	allocationID, adminKey := createResp.AllocationID, createResp.AdminKey
	if allocationID == "" || adminKey == "" {
		t.Fatal("Step 1 - Missing allocation_id or admin_key")
	}
	admin := map[string]string{"X-Admin-Key": adminKey}

	// Step 2: Add 3 choices
	choiceReqs := []models.AddChoiceRequest{
		{Label: "Robotics", MinSize: 2, MaxSize: 3},
		{Label: "Chess", MinSize: 2, MaxSize: 3},
		{Label: "Drama", MinSize: 2, MaxSize: 2, Optional: true},
	}
	choiceIDs := make(map[string]string, len(choiceReqs))
	for _, cr := range choiceReqs {
		req := testutil.MakeRequest("POST", "/allocations/"+allocationID+"/choices", cr, admin)
		req.SetPathValue("id", allocationID)
		w := httptest.NewRecorder()
		allocationHandler.AddChoice(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Add choice %q failed: %d - %s", cr.Label, w.Code, w.Body.String())
		}
		var resp models.AddChoiceResponse
		testutil.AssertJSON(t, w, &resp)
		choiceIDs[cr.Label] = resp.ChoiceID
	}

	// Step 3: Publish
	req = testutil.MakeRequest("POST", "/allocations/"+allocationID+"/publish", nil, admin)
	req.SetPathValue("id", allocationID)
	w = httptest.NewRecorder()
	allocationHandler.PublishAllocation(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Publish failed: %d - %s", w.Code, w.Body.String())
	}
	var publishResp models.PublishAllocationResponse
	testutil.AssertJSON(t, w, &publishResp)
	slug := publishResp.ShareSlug
	if slug == "" {
		t.Fatal("Step 3 - Missing share_slug")
	}

	// Step 4: Participants join
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	tokens := make(map[string]string, len(names))
	for _, name := range names {
		w := joinRequest(participantHandler, slug, name)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 4 - Join %q failed: %d - %s", name, w.Code, w.Body.String())
		}
		var resp models.JoinResponse
		testutil.AssertJSON(t, w, &resp)
		tokens[name] = resp.ParticipantToken
	}

	// Step 5: Submit ratings. Nobody refuses anything, so every list is
	// complete and the seats (8) cover everyone (6).
	robotics, chess, drama := choiceIDs["Robotics"], choiceIDs["Chess"], choiceIDs["Drama"]
	scores := map[string]map[string]int{
		"Alice": {robotics: 5, chess: 3, drama: 1},
		"Bob":   {robotics: 5, chess: 2, drama: 1},
		"Carol": {robotics: 4, chess: 5, drama: 2},
		"Dave":  {robotics: 1, chess: 5, drama: 3},
		"Erin":  {robotics: 2, chess: 4, drama: 5},
		"Frank": {robotics: 3, chess: 3, drama: 3},
	}
	for name, s := range scores {
		w := ratingsRequest(participantHandler, slug, tokens[name], s)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 5 - Ratings for %q failed: %d - %s", name, w.Code, w.Body.String())
		}
	}

	// Step 6: Frank changes his mind
	scores["Frank"] = map[string]int{robotics: 5, chess: 1, drama: 1}
	w = ratingsRequest(participantHandler, slug, tokens["Frank"], scores["Frank"])
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 6 - Update failed: %d - %s", w.Code, w.Body.String())
	}
	var updateResp models.SubmitRatingsResponse
	testutil.AssertJSON(t, w, &updateResp)
	if updateResp.Message != "Ratings updated successfully" {
		t.Errorf("Step 6 - Expected update message, got %q", updateResp.Message)
	}

	// Results are sealed while open
	w = httptest.NewRecorder()
	resultsHandler.GetResults(w, slugRequest("GET", "/allocations/"+slug+"/results", slug))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	resultsHandler.GetParticipantCount(w, slugRequest("GET", "/allocations/"+slug+"/participant-count", slug))
	var countResp models.ParticipantCountResponse
	testutil.AssertJSON(t, w, &countResp)
	if countResp.ParticipantCount != 6 || countResp.RatedCount != 6 {
		t.Errorf("Expected 6/6 participants, got %+v", countResp)
	}

	// Step 7: Close
	w = closeRequest(allocationHandler, allocationID, adminKey, models.CloseAllocationRequest{Seed: int64Ptr(2025)})
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Close failed: %d - %s", w.Code, w.Body.String())
	}
	if got := rec.outcomes(); len(got) != 1 || got[0] != "ok" {
		t.Errorf("Step 7 - Expected one ok solve, got %v", got)
	}

	// Step 8: Verify results
	w = httptest.NewRecorder()
	resultsHandler.GetResults(w, slugRequest("GET", "/allocations/"+slug+"/results", slug))
	testutil.AssertStatus(t, w, http.StatusOK)
	var results struct {
		Allocation models.Allocation     `json:"allocation"`
		Snapshot   models.ResultSnapshot `json:"snapshot"`
	}
	testutil.AssertJSON(t, w, &results)

	if results.Allocation.Status != models.StatusClosed {
		t.Errorf("Expected closed allocation, got %s", results.Allocation.Status)
	}
	if results.Snapshot.Seed != 2025 {
		t.Errorf("Expected seed 2025, got %d", results.Snapshot.Seed)
	}

	byName := make(map[string]string)
	placed := 0
	for _, a := range results.Snapshot.Assignments {
		spec := choiceReqs[0]
		for _, cr := range choiceReqs {
			if cr.Label == a.Label {
				spec = cr
			}
		}
		if a.Closed {
			if len(a.Participants) != 0 {
				t.Errorf("Closed choice %s has participants %v", a.Label, a.Participants)
			}
			continue
		}
		if n := len(a.Participants); n < spec.MinSize || n > spec.MaxSize {
			t.Errorf("Choice %s has %d participants, want %d-%d", a.Label, n, spec.MinSize, spec.MaxSize)
		}
		for _, name := range a.Participants {
			if prev, dup := byName[name]; dup {
				t.Errorf("%s assigned to both %s and %s", name, prev, a.Label)
			}
			byName[name] = a.Label
			placed++
		}
	}
	if placed+len(results.Snapshot.Unassigned) != len(names) {
		t.Errorf("Expected %d participants accounted for, got %d placed and %d unassigned",
			len(names), placed, len(results.Snapshot.Unassigned))
	}

	// Each participant's own view agrees with the public one
	for _, name := range names {
		req := testutil.MakeRequest("GET", "/allocations/"+slug+"/my-assignment", nil,
			map[string]string{"X-Participant-Token": tokens[name]})
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		participantHandler.GetMyAssignment(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var mine models.MyAssignmentResponse
		testutil.AssertJSON(t, w, &mine)
		label, assigned := byName[name]
		if mine.Assigned != assigned {
			t.Errorf("%s: assigned=%v in own view, %v in results", name, mine.Assigned, assigned)
			continue
		}
		if !assigned {
			continue
		}
		if mine.Choice == nil || mine.Choice.Label != label {
			t.Errorf("%s: own view says %+v, results say %s", name, mine.Choice, label)
		}
		if mine.PreferenceRank < 1 || mine.PreferenceRank > len(choiceReqs) {
			t.Errorf("%s: preference rank %d out of range", name, mine.PreferenceRank)
		}
	}

	// No more joins or ratings once closed
	w = joinRequest(participantHandler, slug, "Latecomer")
	testutil.AssertStatus(t, w, http.StatusConflict)
	w = ratingsRequest(participantHandler, slug, tokens["Alice"], scores["Alice"])
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func int64Ptr(v int64) *int64 { return &v }
