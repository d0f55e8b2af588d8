package trade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ticketbay/ticketbay/internal/kvstore"
)

// Repository persists trades.
type Repository interface {
	Save(ctx context.Context, t Trade) error
	FindByID(ctx context.Context, id string) (Trade, error)
	ListByUser(ctx context.Context, userID string) ([]Trade, error)
}

// KVRepository stores trades as JSON records keyed by trade id.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository builds a trade repository over the given store.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// Save writes the trade record.
func (r *KVRepository) Save(ctx context.Context, t Trade) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	return r.store.Set(ctx, kvstore.CollectionTrades, t.ID, raw)
}

// FindByID loads one trade. Returns kvstore.ErrNotFound when absent.
func (r *KVRepository) FindByID(ctx context.Context, id string) (Trade, error) {
	raw, err := r.store.Get(ctx, kvstore.CollectionTrades, id)
	if err != nil {
		return Trade{}, err
	}
	var t Trade
	if err := json.Unmarshal(raw, &t); err != nil {
		return Trade{}, fmt.Errorf("unmarshal trade %s: %w", id, err)
	}
	return t, nil
}

// ListByUser returns every trade where the user is buyer or seller.
func (r *KVRepository) ListByUser(ctx context.Context, userID string) ([]Trade, error) {
	rows, err := r.store.GetAll(ctx, kvstore.CollectionTrades)
	if err != nil {
		return nil, err
	}

	var out []Trade
	for _, raw := range rows {
		var t Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("unmarshal trade: %w", err)
		}
		if t.BuyerID == userID || t.SellerID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}
