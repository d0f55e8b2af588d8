package trade

import "time"

// Status tracks a trade through the escrow lifecycle.
type Status string

const (
	// StatusOpen means the buyer's payment is captured and the proceeds sit
	// in the seller's escrow.
	StatusOpen Status = "open"
	// StatusCompleted means the escrow was released to the seller.
	StatusCompleted Status = "completed"
	// StatusCancelled means the escrow was refunded to the buyer.
	StatusCancelled Status = "cancelled"
)

// Trade represents one ticket sale moving through escrow. The trade id doubles
// as the ledger reference for every balance movement it causes.
type Trade struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
