// Package paf reads Royal Mail PAF address extracts: trims the raw CSV
// down to the requested districts and streams the trimmed rows as delivery
// points.
package paf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/csvutil"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/fsutil"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/progress"
)

// PAF column positions. The extract carries more columns than the
// pipeline reads; unused ones are listed for reference only.
const (
	colPostcode         = 0
	colPostTown         = 1
	colThoroughfare     = 5
	colBuildingNumber   = 6
	colOrganisationName = 11
	colPostcodeType     = 13
)

// minColumns is the highest column index the pipeline reads, plus one.
// Shorter rows are malformed and skipped.
const minColumns = colPostcodeType + 1

const trimmedFileName = "paf_trimmed.csv"

// Trim filters the PAF extract at srcPath down to rows whose postcode
// column falls in one of the wanted districts, writing the result into
// workDir. Progress is reported against a precounted line total.
func Trim(
	ctx context.Context,
	srcPath string,
	workDir string,
	wanted domain.DistrictSet,
	reporter progress.Reporter,
) (_ string, err error) {
	defer obs.Time(ctx, "paf.trim")(&err)

	total, err := fsutil.CountLines(srcPath)
	if err != nil {
		return "", fmt.Errorf("trim paf: %w", err)
	}

	bar := reporter.Start("Trimming PAF data", total)
	defer bar.Finish()

	dst := filepath.Join(workDir, trimmedFileName)
	kept, err := csvutil.FilterFile(ctx, srcPath, dst,
		func(row []string) bool {
			return len(row) > colPostcode && wanted.Contains(row[colPostcode])
		},
		func() { bar.Add(1) },
	)
	if err != nil {
		return "", fmt.Errorf("trim paf: %w", err)
	}
	if kept == 0 {
		return "", fmt.Errorf("trim paf: no rows in %q match the requested districts", srcPath)
	}

	return dst, nil
}

// Source streams delivery points from a trimmed PAF file. Implements
// ports.AddressSource.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// Count returns the row total of the trimmed file for progress display.
func (s *Source) Count(ctx context.Context) (int64, error) {
	n, err := fsutil.CountLines(s.path)
	if err != nil {
		return 0, fmt.Errorf("paf source: %w", err)
	}
	return n, nil
}

// Scan visits every delivery point in file order. Rows too short to carry
// the columns the pipeline reads are skipped.
func (s *Source) Scan(ctx context.Context, fn func(domain.DeliveryPoint) error) error {
	err := csvutil.ScanFile(ctx, s.path, func(row []string) error {
		if len(row) < minColumns {
			return nil
		}
		return fn(domain.DeliveryPoint{
			Postcode:         row[colPostcode],
			PostTown:         row[colPostTown],
			Thoroughfare:     row[colThoroughfare],
			BuildingNumber:   row[colBuildingNumber],
			OrganisationName: row[colOrganisationName],
			PostcodeType:     row[colPostcodeType],
		})
	})
	if err != nil {
		return fmt.Errorf("paf source: %w", err)
	}
	return nil
}
