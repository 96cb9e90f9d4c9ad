// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateAllocationRequest: title, description, creator_name, max_score, max_unwilling
  - AddChoiceRequest: label, min_size, max_size, optional
  - JoinRequest: name
  - SubmitRatingsRequest: scores (map[string]int)

# Response Types

Types for JSON responses:

  - CreateAllocationResponse: allocation_id, admin_key
  - AddChoiceResponse: choice_id
  - PublishAllocationResponse: share_slug, share_url
  - JoinResponse: participant_token
  - SubmitRatingsResponse: participant_id, message
  - CloseAllocationResponse: closed_at, snapshot
  - MyAssignmentResponse: the caller's choice after close
  - ErrorResponse: error, message

# Domain Types

  - Allocation: allocation metadata and lifecycle state
  - Choice: a group with min/max size and optional flag
  - Participant: a joined name with its secret token
  - ResultSnapshot: immutable solve record

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

A score of 0 means "unwilling"; each allocation caps how many a
participant may hand out with max_unwilling.
*/
package models
