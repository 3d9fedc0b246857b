package domain

import "time"

// VerificationTTL is how long an issued email code stays valid.
const VerificationTTL = 10 * time.Minute

// VerificationRecord is a single-use email code. OwnerID is nil while the
// account does not exist yet (pre-registration) and is bound afterwards.
// Timestamps are stored as Unix seconds so conditional updates can compare
// them numerically.
type VerificationRecord struct {
	VerificationID string    `json:"id" dynamodbav:"verification_id"`
	OwnerID        *string   `json:"owner_id,omitempty" dynamodbav:"owner_id,omitempty"`
	Email          string    `json:"email" dynamodbav:"email"`
	Code           string    `json:"-" dynamodbav:"code"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at,unixtime"`
	ExpiresAt      time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	Consumed       bool      `json:"consumed" dynamodbav:"consumed"`
}

// Expired reports whether the record can no longer be confirmed at now.
func (v *VerificationRecord) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// PendingRegistration holds sign-up data between code issue and confirmation.
// No account row exists until the code is confirmed.
type PendingRegistration struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingEmailChange holds the requested address until its code is confirmed.
type PendingEmailChange struct {
	UserID   string    `json:"user_id"`
	NewEmail string    `json:"new_email"`
	Created  time.Time `json:"created_at"`
}
