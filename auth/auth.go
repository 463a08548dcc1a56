// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// PollIDBytes is the random length of a poll id (64 hex characters).
const PollIDBytes = 32

var (
	ErrInvalidPollID = errors.New("invalid poll identifier")
	ErrMissingIP     = errors.New("expected ip address to exist")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePollID creates a new 64 hex digit poll id
func GeneratePollID() (string, error) {
	return GenerateID(PollIDBytes)
}

// ValidatePollID checks that id is exactly 64 lowercase hex digits
func ValidatePollID(id string) error {
	if len(id) != PollIDBytes*2 {
		return ErrInvalidPollID
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return ErrInvalidPollID
		}
	}
	return nil
}

// VoterIdentity derives the deduplication identity for a client address.
// The raw address is never stored, only its salted hash.
func VoterIdentity(ip, salt string) (string, error) {
	if ip == "" {
		return "", ErrMissingIP
	}
	return HashIP(ip, salt), nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
