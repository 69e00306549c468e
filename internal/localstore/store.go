package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is the key → JSON-string persisted local state behind the cart,
// favorites, known order ids and session. Single writer (the current
// process), last write wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("key not found")

// Well-known keys. Every owner package reads and writes exactly one key.
const (
	KeyCart          = "cart"
	KeyFavorites     = "favorites"
	KeyKnownOrderIDs = "known_order_ids"
	KeySession       = "session"
)

// LoadJSON reads key and unmarshals it into v. A missing key is returned
// as ErrNotFound with v untouched.
func LoadJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

// SaveJSON marshals v and writes it under key.
func SaveJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
