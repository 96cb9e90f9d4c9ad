// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

// SlugLength is the fixed width of a share slug
const SlugLength = 11

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey creates an HMAC-based admin key for an allocation.
// Deterministic, so nothing needs to be stored to verify it.
func GenerateAdminKey(allocationID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("admin:" + allocationID))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the allocation
func ValidateAdminKey(allocationID, adminKey, salt string) error {
	expected := GenerateAdminKey(allocationID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateParticipantToken returns a random (version 4) UUID identifying a
// participant within one allocation.
func GenerateParticipantToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate participant token: %w", err)
	}
	return id.String(), nil
}

// ValidateParticipantToken rejects tokens that are not canonical UUIDs, so
// malformed headers never reach the database.
func ValidateParticipantToken(token string) error {
	if len(token) != 36 {
		return ErrInvalidToken
	}
	if _, err := uuid.Parse(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// GenerateShareSlug creates a short, deterministic URL slug for an allocation
func GenerateShareSlug(allocationID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("slug:" + allocationID))
	return base62Encode(h.Sum(nil)[:8])
}

// base62Encode renders up to 8 bytes as a SlugLength-wide base62 string
// (0-9, a-z, A-Z), left-padded with '0'.
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	// 62^11 > 2^64, so eleven digits always suffice
	out := make([]byte, SlugLength)
	for i := SlugLength - 1; i >= 0; i-- {
		out[i] = base62Chars[num%62]
		num /= 62
	}
	return string(out)
}
