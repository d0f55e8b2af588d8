package kvstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(client),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Get(ctx, "wallets", "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := store.Set(ctx, "wallets", "u1", []byte(`{"balance":100}`)); err != nil {
				t.Fatalf("set: %v", err)
			}

			got, err := store.Get(ctx, "wallets", "u1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !bytes.Equal(got, []byte(`{"balance":100}`)) {
				t.Fatalf("unexpected value %s", got)
			}

			// Overwrite must replace the full record.
			if err := store.Set(ctx, "wallets", "u1", []byte(`{"balance":50}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = store.Get(ctx, "wallets", "u1")
			if err != nil {
				t.Fatalf("get after overwrite: %v", err)
			}
			if !bytes.Equal(got, []byte(`{"balance":50}`)) {
				t.Fatalf("unexpected value after overwrite %s", got)
			}
		})
	}
}

func TestStoreGetAllIsolatesCollections(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Set(ctx, "wallets", "u1", []byte("a")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Set(ctx, "wallets", "u2", []byte("b")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Set(ctx, "trades", "t1", []byte("c")); err != nil {
				t.Fatalf("set: %v", err)
			}

			values, err := store.GetAll(ctx, "wallets")
			if err != nil {
				t.Fatalf("getAll: %v", err)
			}
			var got []string
			for _, v := range values {
				got = append(got, string(v))
			}
			sort.Strings(got)
			if len(got) != 2 || got[0] != "a" || got[1] != "b" {
				t.Fatalf("unexpected wallet records %v", got)
			}
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Set(ctx, "users", "u1", []byte("x")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Delete(ctx, "users", "u1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Get(ctx, "users", "u1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}

			// Deleting an absent key is a no-op.
			if err := store.Delete(ctx, "users", "u1"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
		})
	}
}
