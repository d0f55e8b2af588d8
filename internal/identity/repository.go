package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ticketbay/ticketbay/internal/kvstore"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	Save(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// KVRepository implements Repository on the durable key-value store, keyed by
// user id. Email lookup is a collection scan.
type KVRepository struct {
	store kvstore.Store
}

// NewKVRepository builds a key-value backed user repository.
func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

// Create inserts a new user, failing if the id is already taken.
func (r *KVRepository) Create(ctx context.Context, user User) error {
	if _, err := r.FindByID(ctx, user.ID); err == nil {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	return r.Save(ctx, user)
}

// Save upserts the user record.
func (r *KVRepository) Save(ctx context.Context, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	return r.store.Set(ctx, kvstore.CollectionUsers, user.ID, raw)
}

// FindByID fetches a user by identifier.
func (r *KVRepository) FindByID(ctx context.Context, id string) (User, error) {
	raw, err := r.store.Get(ctx, kvstore.CollectionUsers, id)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("decode user %s: %w", id, err)
	}
	return u, nil
}

// FindByEmail scans for a user with the given email, case-insensitively.
func (r *KVRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	raws, err := r.store.GetAll(ctx, kvstore.CollectionUsers)
	if err != nil {
		return User{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, raw := range raws {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return User{}, fmt.Errorf("decode user: %w", err)
		}
		if strings.ToLower(u.Email) == needle {
			return u, nil
		}
	}
	return User{}, kvstore.ErrNotFound
}
