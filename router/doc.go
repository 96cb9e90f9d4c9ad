// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Assign API.

	mux := router.NewRouter(db, cfg, prometheus.NewRegistry())

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Allocation management (admin, requires X-Admin-Key):

	POST /allocations              - Create allocation
	GET  /allocations/{id}/admin   - Allocation details and counts
	POST /allocations/{id}/choices - Add choice
	POST /allocations/{id}/publish - Open for participants
	POST /allocations/{id}/close   - Solve and seal results

Participants (public, uses share slug and X-Participant-Token):

	POST /allocations/{slug}/join          - Join by name
	POST /allocations/{slug}/ratings       - Submit/update ratings
	GET  /allocations/{slug}/my-ratings    - Own ratings
	GET  /allocations/{slug}/my-assignment - Own assignment (closed only)

Results (public):

	GET /allocations/{slug}                   - Allocation info and choices
	GET /allocations/{slug}/results           - Final assignment (closed only)
	GET /allocations/{slug}/participant-count - Joined and rated counts
	GET /allocations/{slug}/preview           - Compact preview data
*/
package router
