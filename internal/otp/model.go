package otp

import "time"

// Purpose identifies what a verification code proves.
type Purpose string

const (
	// PurposeEmailVerification confirms ownership of an email address.
	PurposeEmailVerification Purpose = "email_verification"
	// PurposePhoneVerification confirms ownership of a phone number.
	PurposePhoneVerification Purpose = "phone_verification"
)

// Status tracks the lifecycle of a verification code. Verified and Expired
// are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusExpired  Status = "expired"
)

// Code is one issued verification code. Codes are never deleted by normal
// flow; superseded or timed-out codes transition to Expired.
type Code struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Purpose    Purpose    `json:"purpose"`
	Code       string     `json:"code"`
	Status     Status     `json:"status"`
	Attempts   int        `json:"attempts"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// PendingAt reports whether the code is still usable at the given instant.
// Expiry is evaluated lazily on every read; no timer ever fires.
func (c Code) PendingAt(now time.Time) bool {
	return c.Status == StatusPending && now.Before(c.ExpiresAt)
}

// KnownPurpose reports whether p is one of the supported purposes.
func KnownPurpose(p Purpose) bool {
	switch p {
	case PurposeEmailVerification, PurposePhoneVerification:
		return true
	default:
		return false
	}
}
