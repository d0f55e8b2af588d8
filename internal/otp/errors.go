package otp

import "errors"

var (
	// ErrUnknownPurpose rejects purposes outside the supported set.
	ErrUnknownPurpose = errors.New("unknown verification purpose")

	// ErrNoPendingCode occurs when verification is attempted with no live code.
	ErrNoPendingCode = errors.New("no pending verification code")

	// ErrCodeExpired occurs when the live code's expiry has passed; the code
	// is transitioned to expired as a side effect.
	ErrCodeExpired = errors.New("verification code expired")

	// ErrCodeMismatch occurs when the submitted code does not match; the code
	// stays pending until the attempt cap is reached.
	ErrCodeMismatch = errors.New("verification code mismatch")

	// ErrTooManyAttempts occurs on the mismatch that exhausts the attempt
	// cap; the code is expired as a side effect.
	ErrTooManyAttempts = errors.New("too many verification attempts")
)
