// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Assign API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AllocationHandler: Allocation lifecycle (create, add choices, publish, close)
  - ParticipantHandler: Joining, ratings and personal assignments
  - ResultsHandler: Allocation info, counts and sealed results

	allocationHandler := handlers.NewAllocationHandler(db, cfg, recorder)

# Allocation Lifecycle

Allocations progress through three states: draft → open → closed

	POST /allocations                → CreateAllocation (returns admin_key)
	POST /allocations/{id}/choices   → AddChoice (draft only)
	POST /allocations/{id}/publish   → PublishAllocation (generates share_slug)
	POST /allocations/{id}/close     → CloseAllocation (solves and seals)

Admin operations require the X-Admin-Key header.

# Participant Flow

	POST /allocations/{slug}/join          → Join (returns participant_token)
	POST /allocations/{slug}/ratings       → SubmitRatings (create or replace)
	GET  /allocations/{slug}/my-assignment → GetMyAssignment (closed only)

Participant operations require the X-Participant-Token header.

# Closing

CloseAllocation loads the ratings with LoadProblem, runs the configured
matcher through matching.Solver and stores a ResultSnapshot together with
the seed and an InputsHash of the problem, so a result can be replayed.
If the allocation cannot be solved it stays open and the request fails
with 422.
*/
package handlers
