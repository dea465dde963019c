package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

// SQLGeocodeCache is a Postgres-backed cache mapping postcodes to
// coordinates, for installs that share one cache between machines.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// Fetch cached coordinates for the given postcodes.
func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	postcodes []domain.Postcode,
) (_ map[domain.Postcode]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.pg.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniquePostcodes(postcodes)
	if len(uniq) == 0 {
		return map[domain.Postcode]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, p := range uniq {
		keys = append(keys, p.String())
	}

	q := `
	SELECT postcode, lat, lon
    FROM geocode_cache
    WHERE postcode = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, keys)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	return scanCoordRows(rows, len(uniq))
}

// Store postcode -> coordinate mappings in the cache.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[domain.Postcode]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (postcode, lat, lon)
    VALUES ($1, $2, $3)
	ON CONFLICT (postcode) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for p, c := range results {
		if p.IsZero() {
			return fmt.Errorf("insert geocode cache: zero postcode key")
		}

		if _, err := stmt.ExecContext(ctx, p.String(), c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert geocode cache postcode=%q: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}
