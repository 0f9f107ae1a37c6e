package cache

import (
	"context"
	"time"
)

// EntryStore is the subset of the database used by the SQL backend.
type EntryStore interface {
	GetCacheEntry(ctx context.Context, key string) ([]byte, bool, error)
	PutCacheEntry(ctx context.Context, key string, value []byte, ttl time.Duration) error
	ClearCache(ctx context.Context) error
}

// SQL keeps entries in the application database.
type SQL struct {
	store EntryStore
}

var _ Cache = (*SQL)(nil)

// NewSQL returns a cache backed by store.
func NewSQL(store EntryStore) *SQL {
	return &SQL{store: store}
}

// Get reads a live row.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.GetCacheEntry(ctx, key)
}

// Put stores value. A non-positive ttl is treated as one year since rows
// always carry an expiry.
func (s *SQL) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return s.store.PutCacheEntry(ctx, key, value, ttl)
}

// Clear deletes every row.
func (s *SQL) Clear(ctx context.Context) error {
	return s.store.ClearCache(ctx)
}
