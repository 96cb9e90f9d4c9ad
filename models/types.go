// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/quickly-assign/matching"
)

// Allocation status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Rating defaults applied when a create request leaves them unset
const (
	DefaultMaxScore     = 5
	DefaultMaxUnwilling = 1
)

// Request types

type CreateAllocationRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CreatorName  string `json:"creator_name"`
	MaxScore     *int   `json:"max_score,omitempty"`
	MaxUnwilling *int   `json:"max_unwilling,omitempty"`
}

type AddChoiceRequest struct {
	Label    string `json:"label"`
	MinSize  int    `json:"min_size"`
	MaxSize  int    `json:"max_size"`
	Optional bool   `json:"optional"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

// choice_id -> score (0 = unwilling, max_score = favourite)
type SubmitRatingsRequest struct {
	Scores map[string]int `json:"scores"`
}

// Seed is optional; the server draws one when it is absent.
type CloseAllocationRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

// Response types

type CreateAllocationResponse struct {
	AllocationID string `json:"allocation_id"`
	AdminKey     string `json:"admin_key"`
}

type AddChoiceResponse struct {
	ChoiceID string `json:"choice_id"`
}

type PublishAllocationResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type JoinResponse struct {
	ParticipantToken string `json:"participant_token"`
}

type SubmitRatingsResponse struct {
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
}

type MyRatingsResponse struct {
	Name   string         `json:"name"`
	Scores map[string]int `json:"scores"`
}

type CloseAllocationResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type AllocationAdminResponse struct {
	Allocation       Allocation `json:"allocation"`
	Choices          []Choice   `json:"choices"`
	ParticipantCount int        `json:"participant_count"`
	RatedCount       int        `json:"rated_count"`
}

type ParticipantCountResponse struct {
	ParticipantCount int `json:"participant_count"`
	RatedCount       int `json:"rated_count"`
}

type AllocationPreviewResponse struct {
	Title            string `json:"title"`
	Status           string `json:"status"`
	ChoiceCount      int    `json:"choice_count"`
	ParticipantCount int    `json:"participant_count"`
}

type MyAssignmentResponse struct {
	Name     string  `json:"name"`
	Assigned bool    `json:"assigned"`
	Choice   *Choice `json:"choice,omitempty"`
	// 1-indexed position of the choice in the participant's own ranking
	PreferenceRank int `json:"preference_rank,omitempty"`
}

// Domain types

type Allocation struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Method          string     `json:"method"`
	Status          string     `json:"status"`
	MaxScore        int        `json:"max_score"`
	MaxUnwilling    int        `json:"max_unwilling"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Choice struct {
	ID           string `json:"id"`
	AllocationID string `json:"allocation_id"`
	Label        string `json:"label"`
	MinSize      int    `json:"min_size"`
	MaxSize      int    `json:"max_size"`
	Optional     bool   `json:"optional"`
}

type AllocationWithChoices struct {
	Allocation Allocation `json:"allocation"`
	Choices    []Choice   `json:"choices"`
}

type Participant struct {
	ID           string    `json:"id"`
	AllocationID string    `json:"allocation_id"`
	Name         string    `json:"name"`
	Token        string    `json:"-"` // Never expose in JSON
	JoinedAt     time.Time `json:"joined_at"`
}

// Result types

type ChoiceAssignment struct {
	ChoiceID     string   `json:"choice_id"`
	Label        string   `json:"label"`
	Closed       bool     `json:"closed"`
	Capacity     int      `json:"capacity"`
	Participants []string `json:"participants"` // display names, tie-break order
}

type ResultSnapshot struct {
	ID           string             `json:"id"`
	AllocationID string             `json:"allocation_id"`
	Method       string             `json:"method"`
	ComputedAt   time.Time          `json:"computed_at"`
	Seed         int64              `json:"seed"`
	Iterations   int                `json:"iterations"`
	Assignments  []ChoiceAssignment `json:"assignments"`
	Unassigned   []string           `json:"unassigned"`
	InputsHash   string             `json:"inputs_hash"`
	// Result is the raw solver output keyed by IDs, kept for replay.
	Result *matching.Result `json:"result,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
