// Package token mints opaque secrets handed to clients.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// refreshBytes of entropy encode to a 64 character refresh token.
const refreshBytes = 32

// NewRefreshToken returns a hex-encoded random refresh token.
func NewRefreshToken() (string, error) {
	var raw [refreshBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read entropy for refresh token: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewTicket names a pending registration. Tickets are random v4 UUIDs so
// they reveal nothing about the email or the time the flow started.
func NewTicket() string {
	return uuid.NewString()
}
