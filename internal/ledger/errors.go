package ledger

import "errors"

var (
	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientPendingBalance occurs when a release exceeds the funds
	// currently held in escrow.
	ErrInsufficientPendingBalance = errors.New("insufficient pending balance")

	// ErrCurrencyMismatch occurs when an amount's currency differs from the
	// wallet's currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrDuplicateReference indicates a transaction with the same type and
	// reference was already applied to the wallet, so the operation is
	// rejected rather than double-applied.
	ErrDuplicateReference = errors.New("duplicate reference")
)
