package creds

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/store"
)

// Credentials is the opaque key/device pair needed to call the SMS gateway.
// It is treated as a bearer token: no expiry, rotation or scoping.
type Credentials struct {
	APIKey   string `json:"api_key"`
	DeviceID string `json:"device_id"`
}

var (
	// ErrNotConfigured means no credential row exists; the operator must log in.
	ErrNotConfigured = errors.New("no sms credentials configured, please log in again")
	// ErrAmbiguous means the single-row table holds more than one row.
	ErrAmbiguous = errors.New("ambiguous sms credentials, please log in again")
)

const (
	cacheKeyAPIKey   = "rollcall:creds:api_key"
	cacheKeyDeviceID = "rollcall:creds:device_id"
)

// Store keeps the credential pair in the single-row user_credentials table,
// with an optional Redis cache standing in for the operator's
// "keep me signed in" state. Callers receive the pair explicitly and never
// reach into ambient state.
type Store struct {
	db    store.Querier
	cache *redis.Client // nil disables the remember-me cache
}

// NewStore creates a credential store.
func NewStore(db store.Querier, cache *redis.Client) *Store {
	return &Store{db: db, cache: cache}
}

// Save replaces the stored pair, last write wins. With remember set the pair
// is also written to the cache under fixed keys.
func (s *Store) Save(ctx context.Context, c Credentials, remember bool) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM user_credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO user_credentials (api_key, device_id) VALUES ($1, $2)
	`, c.APIKey, c.DeviceID); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	if remember && s.cache != nil {
		if err := s.cache.MSet(ctx, cacheKeyAPIKey, c.APIKey, cacheKeyDeviceID, c.DeviceID).Err(); err != nil {
			log.Printf("credential cache write failed: %v", err)
		}
	}
	return nil
}

// Load reads the pair from the backing table. Zero or multiple rows are
// blocking configuration errors for any flow that needs credentials.
func (s *Store) Load(ctx context.Context) (Credentials, error) {
	rows, err := s.db.Query(ctx, `SELECT api_key, device_id FROM user_credentials`)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var found []Credentials
	for rows.Next() {
		var c Credentials
		if err := rows.Scan(&c.APIKey, &c.DeviceID); err != nil {
			return Credentials{}, fmt.Errorf("failed to scan credential row: %w", err)
		}
		found = append(found, c)
	}
	if err := rows.Err(); err != nil {
		return Credentials{}, err
	}
	switch len(found) {
	case 0:
		return Credentials{}, ErrNotConfigured
	case 1:
		return found[0], nil
	default:
		return Credentials{}, ErrAmbiguous
	}
}

// Cached returns the remembered pair; ok is false when either key is absent
// or no cache is configured.
func (s *Store) Cached(ctx context.Context) (Credentials, bool, error) {
	if s.cache == nil {
		return Credentials{}, false, nil
	}
	vals, err := s.cache.MGet(ctx, cacheKeyAPIKey, cacheKeyDeviceID).Result()
	if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to read credential cache: %w", err)
	}
	key, _ := vals[0].(string)
	device, _ := vals[1].(string)
	if key == "" || device == "" {
		return Credentials{}, false, nil
	}
	return Credentials{APIKey: key, DeviceID: device}, true, nil
}

// ClearCache drops the remembered pair on sign-out. The table row survives.
func (s *Store) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKeyAPIKey, cacheKeyDeviceID).Err()
}
