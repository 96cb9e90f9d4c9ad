// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(allocationID, salt)
	err := auth.ValidateAdminKey(allocationID, adminKey, salt)

The key is URL-safe base64 without padding. The same allocation ID and salt
always produce the same key, so it is never stored.

# Participant Tokens

Participant tokens are random UUIDs handed out on join:

	token, err := auth.GenerateParticipantToken()
	err = auth.ValidateParticipantToken(r.Header.Get("X-Participant-Token"))

# Share Slugs

Share slugs are fixed-width base62 strings derived from the allocation ID:

	slug := auth.GenerateShareSlug(allocationID, salt)

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
