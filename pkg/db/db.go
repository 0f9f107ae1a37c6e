// Package db provides the persistence layer used by the service. It stores
// cached recommendation payloads and a short history of served requests in
// either SQLite (the default, convenient for local runs) or PostgreSQL.
// Callers open a single DB with New and share it.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
	driver string
	now    func() time.Time
}

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS cache_entries (cache_key TEXT PRIMARY KEY, value BLOB NOT NULL, expires_at INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS history (id INTEGER PRIMARY KEY AUTOINCREMENT, prompt TEXT NOT NULL, era TEXT NOT NULL, mode TEXT NOT NULL, track_count INTEGER NOT NULL, degraded INTEGER NOT NULL, refresh_seed INTEGER, created_at INTEGER NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS cache_entries (cache_key TEXT PRIMARY KEY, value BYTEA NOT NULL, expires_at BIGINT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS history (id BIGSERIAL PRIMARY KEY, prompt TEXT NOT NULL, era TEXT NOT NULL, mode TEXT NOT NULL, track_count INTEGER NOT NULL, degraded BOOLEAN NOT NULL, refresh_seed BIGINT, created_at BIGINT NOT NULL)`,
		`CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at)`,
	},
}

// New opens the database identified by driver and dsn and creates the
// schema if needed. For SQLite the dsn is a file path or ":memory:".
func New(driver, dsn string) (*DB, error) {
	stmts, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
	d, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite serialises writers; an in-memory database also only exists
		// on the connection that created it.
		d.SetMaxOpenConns(1)
	} else {
		d.SetMaxOpenConns(25)
		d.SetMaxIdleConns(5)
		d.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	for _, s := range stmts {
		if _, err := d.ExecContext(ctx, s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{DB: d, driver: driver, now: time.Now}, nil
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string { return db.driver }

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetCacheEntry returns the cached value for key. Expired entries are
// reported as missing.
func (db *DB) GetCacheEntry(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx,
		db.rebind(`SELECT value FROM cache_entries WHERE cache_key=? AND expires_at>?`),
		key, db.now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// PutCacheEntry stores value under key until ttl elapses, replacing any
// existing entry.
func (db *DB) PutCacheEntry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expires := db.now().Add(ttl).Unix()
	_, err := db.ExecContext(ctx,
		db.rebind(`INSERT INTO cache_entries(cache_key, value, expires_at) VALUES(?, ?, ?) ON CONFLICT(cache_key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`),
		key, value, expires)
	return err
}

// ClearCache removes every cache entry.
func (db *DB) ClearCache(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

// PurgeExpired deletes entries whose TTL has elapsed and reports how many
// were removed.
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM cache_entries WHERE expires_at<=?`), db.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HistoryEntry records one served recommendation request.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Prompt      string    `json:"prompt"`
	Era         string    `json:"era"`
	Mode        string    `json:"mode"`
	TrackCount  int       `json:"track_count"`
	Degraded    bool      `json:"degraded"`
	RefreshSeed *int64    `json:"refresh_seed"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddHistory appends e. CreatedAt defaults to the current time.
func (db *DB) AddHistory(ctx context.Context, e HistoryEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now()
	}
	var seed sql.NullInt64
	if e.RefreshSeed != nil {
		seed = sql.NullInt64{Int64: *e.RefreshSeed, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		db.rebind(`INSERT INTO history(prompt, era, mode, track_count, degraded, refresh_seed, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`),
		e.Prompt, e.Era, e.Mode, e.TrackCount, e.Degraded, seed, e.CreatedAt.Unix())
	return err
}

// RecentHistory returns up to limit entries, newest first.
func (db *DB) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		db.rebind(`SELECT id, prompt, era, mode, track_count, degraded, refresh_seed, created_at FROM history ORDER BY created_at DESC, id DESC LIMIT ?`),
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var seed sql.NullInt64
		var created int64
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Era, &e.Mode, &e.TrackCount, &e.Degraded, &seed, &created); err != nil {
			return nil, err
		}
		if seed.Valid {
			s := seed.Int64
			e.RefreshSeed = &s
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
