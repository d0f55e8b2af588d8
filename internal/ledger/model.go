package ledger

import "time"

// TransactionType labels the effect a transaction has on the wallet balances.
type TransactionType string

const (
	// TypeCredit adds to the available balance.
	TypeCredit TransactionType = "credit"
	// TypeDebit removes from the available balance, or from the pending
	// balance when the transaction carries the refund marker.
	TypeDebit TransactionType = "debit"
	// TypeHold adds captured funds to the pending (escrow) balance.
	TypeHold TransactionType = "hold"
	// TypeRelease moves funds from the pending balance to the available one.
	TypeRelease TransactionType = "release"
)

// Wallet is the mutable balance snapshot for one user. It is a materialized
// view of the user's transaction log and is only ever written by the ledger
// service.
type Wallet struct {
	UserID         string    `json:"user_id"`
	Currency       string    `json:"currency"`
	Balance        int64     `json:"balance"`
	PendingBalance int64     `json:"pending_balance"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Transaction is one immutable entry in the append-only log. Amount is always
// the effective magnitude applied to the snapshot, so replaying the log
// reproduces the snapshot exactly.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	// Refund marks a debit that returns held funds to the payer; it folds
	// against the pending balance instead of the available one.
	Refund    bool      `json:"refund,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Replay folds a transaction log in creation order and returns the balances
// it implies. The stored snapshot must match the replayed pair; tests and
// audits rely on that equivalence.
func Replay(log []Transaction) (balance, pending int64) {
	for _, tx := range log {
		switch tx.Type {
		case TypeCredit:
			balance += tx.Amount
		case TypeDebit:
			if tx.Refund {
				pending -= tx.Amount
			} else {
				balance -= tx.Amount
			}
		case TypeHold:
			pending += tx.Amount
		case TypeRelease:
			pending -= tx.Amount
			balance += tx.Amount
		}
	}
	return balance, pending
}
