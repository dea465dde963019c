package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/ports"
)

// InitSchema creates the geocode cache table. The DDL is accepted by both
// SQLite and Postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        postcode TEXT PRIMARY KEY,
        lat REAL NOT NULL,
        lon REAL NOT NULL
    );
	`

	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init schema: create geocode_cache: %w", err)
	}

	return nil
}

// CountEntries returns the number of cached postcodes.
func CountEntries(ctx context.Context, db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errors.New("count entries: DB is nil")
	}

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}

	return n, nil
}

// Preload bulk-loads postcode coordinates into the cache in chunks, so a
// full ONS snapshot can be imported ahead of time and later runs resolve
// offline. Returns the number of entries written.
func Preload(
	ctx context.Context,
	dst ports.GeocodeCache,
	src func(fn func(domain.Postcode, domain.Coordinates) error) error,
) (int64, error) {
	const chunkSize = 500

	var written int64
	pending := make(map[domain.Postcode]domain.Coordinates, chunkSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := dst.PutMany(ctx, pending); err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		written += int64(len(pending))
		pending = make(map[domain.Postcode]domain.Coordinates, chunkSize)
		return nil
	}

	err := src(func(p domain.Postcode, c domain.Coordinates) error {
		pending[p] = c
		if len(pending) >= chunkSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return written, err
	}

	if err := flush(); err != nil {
		return written, err
	}

	return written, nil
}
