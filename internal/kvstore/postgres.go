package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS kv_records (
    collection text NOT NULL,
    key        text NOT NULL,
    value      bytea NOT NULL,
    PRIMARY KEY (collection, key)
)`

type postgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres builds a store backed by a single Postgres table and ensures
// the schema exists.
func NewPostgres(ctx context.Context, db *pgxpool.Pool) (Store, error) {
	if _, err := db.Exec(ctx, createRecordsTable); err != nil {
		return nil, fmt.Errorf("ensure kv_records table: %w", err)
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	row := s.db.QueryRow(ctx, `SELECT value FROM kv_records WHERE collection = $1 AND key = $2`, collection, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres get %s/%s: %w", collection, key, err)
	}
	return value, nil
}

func (s *postgresStore) Set(ctx context.Context, collection, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `INSERT INTO kv_records (collection, key, value) VALUES ($1, $2, $3)
        ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value`, collection, key, value)
	if err != nil {
		return fmt.Errorf("postgres set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *postgresStore) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	rows, err := s.db.Query(ctx, `SELECT value FROM kv_records WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("postgres scan %s: %w", collection, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("postgres scan %s: %w", collection, err)
		}
		out = append(out, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres scan %s: %w", collection, err)
	}
	return out, nil
}

func (s *postgresStore) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM kv_records WHERE collection = $1 AND key = $2`, collection, key); err != nil {
		return fmt.Errorf("postgres delete %s/%s: %w", collection, key, err)
	}
	return nil
}
