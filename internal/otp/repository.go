package otp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticketbay/ticketbay/internal/kvstore"
)

// Repository persists verification codes.
type Repository interface {
	Save(ctx context.Context, code Code) error
	// ListByUser returns every code for (userID, purpose) in unspecified order.
	ListByUser(ctx context.Context, userID string, purpose Purpose) ([]Code, error)
}

// KVRepository implements Repository on the durable key-value store.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository builds a key-value backed code repository.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// Save upserts a code record keyed by its id.
func (r *KVRepository) Save(ctx context.Context, code Code) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("encode code %s: %w", code.ID, err)
	}
	return r.store.Set(ctx, kvstore.CollectionCodes, code.ID, raw)
}

// ListByUser scans the collection and filters by user and purpose.
func (r *KVRepository) ListByUser(ctx context.Context, userID string, purpose Purpose) ([]Code, error) {
	raws, err := r.store.GetAll(ctx, kvstore.CollectionCodes)
	if err != nil {
		return nil, err
	}
	var out []Code
	for _, raw := range raws {
		var c Code
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode code: %w", err)
		}
		if c.UserID == userID && c.Purpose == purpose {
			out = append(out, c)
		}
	}
	return out, nil
}
