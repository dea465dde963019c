package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

// SQLite backed cache mapping postcodes to geographic coordinates.
// Postcode keys are canonical by construction, so no further key
// normalization happens here.
type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

// Fetch cached coordinates for the given postcodes.
func (s *SqliteGeocodeCache) GetMany(
	ctx context.Context,
	postcodes []domain.Postcode,
) (_ map[domain.Postcode]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniquePostcodes(postcodes)
	if len(uniq) == 0 {
		return map[domain.Postcode]domain.Coordinates{}, nil
	}

	ph := make([]string, 0, len(uniq))
	args := make([]any, 0, len(uniq))
	for _, p := range uniq {
		ph = append(ph, "?")
		args = append(args, p.String())
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        postcode,
        lat,
        lon
    FROM geocode_cache
    WHERE postcode IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	return scanCoordRows(rows, len(uniq))
}

// Store postcode -> coordinate mappings in the cache.
func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[domain.Postcode]domain.Coordinates) error {
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
	INSERT OR REPLACE INTO geocode_cache (
        postcode,
        lat,
        lon
    )
    VALUES (?, ?, ?);
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

func uniquePostcodes(postcodes []domain.Postcode) []domain.Postcode {
	seen := make(map[domain.Postcode]struct{}, len(postcodes))
	uniq := make([]domain.Postcode, 0, len(postcodes))
	for _, p := range postcodes {
		if p.IsZero() {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	return uniq
}

func scanCoordRows(rows *sql.Rows, sizeHint int) (map[domain.Postcode]domain.Coordinates, error) {
	out := make(map[domain.Postcode]domain.Coordinates, sizeHint)
	for rows.Next() {
		var raw string
		var lat, lon float64
		if err := rows.Scan(&raw, &lat, &lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}

		p, err := domain.ParsePostcode(raw)
		if err != nil {
			// Rows written by older tooling may carry junk keys; a bad
			// row is a miss, not a failure.
			continue
		}
		out[p] = domain.Coordinates{Lat: lat, Lon: lon}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}
