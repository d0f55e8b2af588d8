// Package kvstore provides the durable key-value store the domain services
// persist into. Each logical collection is an independent map from string key
// to an opaque serialized record. Single writes are durable; there are no
// transactions spanning multiple keys.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested key does not exist in the collection.
var ErrNotFound = errors.New("record not found")

// Collection names used across the application.
const (
	CollectionWallets      = "wallets"
	CollectionTransactions = "wallet_transactions"
	CollectionCodes        = "verification_codes"
	CollectionUsers        = "users"
	CollectionTrades       = "trades"
)

// Store is the contract implemented by every persistence backend.
type Store interface {
	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)
	// Set upserts the record under key, overwriting any previous value.
	Set(ctx context.Context, collection, key string, value []byte) error
	// GetAll returns every record in the collection in unspecified order.
	GetAll(ctx context.Context, collection string) ([][]byte, error)
	// Delete removes the record under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error
}
