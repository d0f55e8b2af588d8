package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ticketbay/ticketbay/internal/kvstore"
)

// Repository persists wallet snapshots and the append-only transaction log.
type Repository interface {
	GetWallet(ctx context.Context, userID string) (Wallet, error)
	SaveWallet(ctx context.Context, wallet Wallet) error
	AppendTransaction(ctx context.Context, tx Transaction) error
	// ListTransactions returns the user's log, newest first.
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	// HasTransaction reports whether a transaction with the given type and
	// reference already exists for the user.
	HasTransaction(ctx context.Context, userID string, typ TransactionType, reference string) (bool, error)
}

// KVRepository implements Repository on top of the durable key-value store.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository builds a key-value backed ledger repository.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// GetWallet fetches the balance snapshot for a user. Absence surfaces as
// kvstore.ErrNotFound; the service creates wallets lazily on top of that.
func (r *KVRepository) GetWallet(ctx context.Context, userID string) (Wallet, error) {
	raw, err := r.store.Get(ctx, kvstore.CollectionWallets, userID)
	if err != nil {
		return Wallet{}, err
	}
	var w Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return Wallet{}, fmt.Errorf("decode wallet %s: %w", userID, err)
	}
	return w, nil
}

// SaveWallet upserts the balance snapshot.
func (r *KVRepository) SaveWallet(ctx context.Context, wallet Wallet) error {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("encode wallet %s: %w", wallet.UserID, err)
	}
	return r.store.Set(ctx, kvstore.CollectionWallets, wallet.UserID, raw)
}

// AppendTransaction stores one immutable log entry keyed by its id.
func (r *KVRepository) AppendTransaction(ctx context.Context, tx Transaction) error {
	raw, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.ID, err)
	}
	return r.store.Set(ctx, kvstore.CollectionTransactions, tx.ID, raw)
}

// ListTransactions scans the log collection and returns the user's entries
// ordered newest first, id as a deterministic tie-break.
func (r *KVRepository) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	all, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	var out []Transaction
	for _, tx := range all {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// HasTransaction reports whether the (user, type, reference) triple exists.
func (r *KVRepository) HasTransaction(ctx context.Context, userID string, typ TransactionType, reference string) (bool, error) {
	all, err := r.scan(ctx)
	if err != nil {
		return false, err
	}
	for _, tx := range all {
		if tx.UserID == userID && tx.Type == typ && tx.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (r *KVRepository) scan(ctx context.Context) ([]Transaction, error) {
	raws, err := r.store.GetAll(ctx, kvstore.CollectionTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(raws))
	for _, raw := range raws {
		var tx Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, nil
}
