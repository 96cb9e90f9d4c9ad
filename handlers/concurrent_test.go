// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/quickly-assign/models"
	"github.com/danielhkuo/quickly-assign/testutil"
)

// TestConcurrentRatingSubmissions verifies that simultaneous submissions from
// different participants all land exactly once
func TestConcurrentRatingSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	a := testutil.AddTestChoice(t, db, allocationID, "A", 0, 10, false)
	b := testutil.AddTestChoice(t, db, allocationID, "B", 0, 10, false)
	c := testutil.AddTestChoice(t, db, allocationID, "C", 0, 10, false)

	numParticipants := 10
	tokens := make([]string, numParticipants)
	for i := range tokens {
		_, tokens[i] = testutil.CreateTestParticipant(t, db, allocationID, fmt.Sprintf("Participant%02d", i))
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numParticipants; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			scores := map[string]int{
				a: 1 + idx%5,
				b: 1 + (idx+1)%5,
				c: 1 + (idx+2)%5,
			}
			w := ratingsRequest(handler, slug, tokens[idx], scores)
			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(successCount.Load()) != numParticipants {
		t.Errorf("Expected %d successful submissions, got %d", numParticipants, successCount.Load())
	}

	var ratingCount, raters int
	err := db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT r.participant_id)
		FROM rating r JOIN participant p ON p.id = r.participant_id
		WHERE p.allocation_id = $1
	`, allocationID).Scan(&ratingCount, &raters)
	if err != nil {
		t.Fatalf("Failed to count ratings: %v", err)
	}
	if ratingCount != numParticipants*3 {
		t.Errorf("Expected %d ratings, got %d", numParticipants*3, ratingCount)
	}
	if raters != numParticipants {
		t.Errorf("Expected %d raters, got %d", numParticipants, raters)
	}
}

// TestConcurrentNameClaims verifies that when several goroutines join with
// the same name, exactly one succeeds
func TestConcurrentNameClaims(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewParticipantHandler(db, cfg)

	allocationID, _, slug := testutil.CreateTestAllocation(t, db, cfg, models.StatusOpen)
	testutil.AddTestChoice(t, db, allocationID, "A", 0, 2, false)

	numAttempts := 5
	var successCount, conflictCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := joinRequest(handler, slug, "RaceConditionUser")
			switch w.Code {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful join, got %d", successCount.Load())
	}
	if conflictCount.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflictCount.Load())
	}

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM participant WHERE allocation_id = $1`, allocationID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count participants: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 participant, got %d", count)
	}
}

// TestConcurrentClose verifies that racing close requests compute and store
// exactly one snapshot
func TestConcurrentClose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAllocationHandler(db, cfg, nil)
	f := newCloseFixture(t, handler)

	numAttempts := 4
	var successCount, conflictCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := closeRequest(handler, f.allocationID, f.adminKey, nil)
			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful close, got %d", successCount.Load())
	}
	if conflictCount.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflictCount.Load())
	}

	var snapshots int
	err := db.QueryRow(`SELECT COUNT(*) FROM result_snapshot WHERE allocation_id = $1`, f.allocationID).Scan(&snapshots)
	if err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if snapshots != 1 {
		t.Errorf("Expected 1 snapshot, got %d", snapshots)
	}
}
