// Package ons resolves postcodes to coordinates from ONS postcode
// directory snapshots. Snapshots are split per postcode area
// (ONS_UK_BT.csv, ONS_UK_CV.csv, ...) and carry latitude/longitude at
// fixed column positions.
package ons

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/csvutil"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/fsutil"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
)

// ONS snapshot column positions.
const (
	colPostcode  = 2
	colLatitude  = 42
	colLongitude = 43
)

const minColumns = colLongitude + 1

const trimmedFileName = "ons_trimmed.csv"

const filePrefix = "ONS_UK_"

// FindAreaFile locates the snapshot covering the given postcode area
// (e.g. "BT" -> ONS_UK_BT.csv) inside dir.
func FindAreaFile(dir string, area string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("find ons file: read %q: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		fileArea := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".csv")
		if fileArea == area {
			return filepath.Join(dir, name), nil
		}
	}

	return "", fmt.Errorf("find ons file: no snapshot for area %q in %q", area, dir)
}

// Trim filters the snapshot at srcPath down to the wanted districts,
// writing the result into workDir.
func Trim(
	ctx context.Context,
	srcPath string,
	workDir string,
	wanted domain.DistrictSet,
	reporter progress.Reporter,
) (_ string, err error) {
	defer obs.Time(ctx, "ons.trim")(&err)

	total, err := fsutil.CountLines(srcPath)
	if err != nil {
		return "", fmt.Errorf("trim ons: %w", err)
	}

	bar := reporter.Start("Trimming ONS data", total)
	defer bar.Finish()

	dst := filepath.Join(workDir, trimmedFileName)
	_, err = csvutil.FilterFile(ctx, srcPath, dst,
		func(row []string) bool {
			return len(row) > colPostcode && wanted.Contains(row[colPostcode])
		},
		func() { bar.Add(1) },
	)
	if err != nil {
		return "", fmt.Errorf("trim ons: %w", err)
	}

	return dst, nil
}

// Locator answers postcode lookups from a trimmed snapshot. The snapshot
// is loaded once on first use; trimmed files are small enough to hold in
// memory. Implements ports.Locator.
type Locator struct {
	path   string
	coords map[domain.Postcode]domain.Coordinates
}

func NewLocator(path string) *Locator {
	return &Locator{path: path}
}

func (l *Locator) Name() string { return "ons snapshot" }

// Locate returns coordinates for every postcode present in the snapshot;
// postcodes the snapshot does not carry are absent from the result.
func (l *Locator) Locate(
	ctx context.Context,
	postcodes []domain.Postcode,
) (_ map[domain.Postcode]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ons.Locate")(&err)

	if l.coords == nil {
		if err := l.load(ctx); err != nil {
			return nil, err
		}
	}

	out := make(map[domain.Postcode]domain.Coordinates)
	for _, p := range postcodes {
		if c, ok := l.coords[p]; ok {
			out[p] = c
		}
	}

	return out, nil
}

func (l *Locator) load(ctx context.Context) error {
	coords := make(map[domain.Postcode]domain.Coordinates)

	err := ScanSnapshot(ctx, l.path, func(p domain.Postcode, c domain.Coordinates) error {
		coords[p] = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("ons locator: load %q: %w", l.path, err)
	}

	l.coords = coords
	return nil
}

// ScanSnapshot visits every usable postcode row of a snapshot file. Rows
// without a parseable postcode or coordinates (headers, terminated
// postcodes) are skipped.
func ScanSnapshot(
	ctx context.Context,
	path string,
	fn func(domain.Postcode, domain.Coordinates) error,
) error {
	return csvutil.ScanFile(ctx, path, func(row []string) error {
		if len(row) < minColumns {
			return nil
		}

		p, perr := domain.ParsePostcode(row[colPostcode])
		if perr != nil {
			return nil
		}

		lat, laterr := strconv.ParseFloat(strings.TrimSpace(row[colLatitude]), 64)
		lon, lonerr := strconv.ParseFloat(strings.TrimSpace(row[colLongitude]), 64)
		if laterr != nil || lonerr != nil {
			return nil
		}

		return fn(p, domain.Coordinates{Lat: lat, Lon: lon})
	})
}
