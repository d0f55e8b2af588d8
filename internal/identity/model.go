package identity

import "time"

// User represents a registered marketplace member.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	PasswordHash  []byte    `json:"password_hash"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Credentials carry registration/login input.
type Credentials struct {
	Email    string
	Phone    string
	Password string
}
