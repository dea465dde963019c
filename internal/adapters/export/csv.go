// Package export writes finished run results to the event output folder.
// Export failures are fatal to the run; a half-written output is worse
// than no output.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

const csvFileName = "Postcodes.csv"

// CSVExporter writes one row per located postcode:
// postcode, address count, latitude, longitude.
type CSVExporter struct {
	Dir string
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{Dir: dir}
}

func (e *CSVExporter) Name() string { return "postcode csv" }

func (e *CSVExporter) Export(ctx context.Context, run *domain.RunResult) (err error) {
	defer obs.Time(ctx, "export.csv")(&err)

	path := filepath.Join(e.Dir, csvFileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv export: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"postcode", "address count", "latitude", "longitude"}); err != nil {
		return fmt.Errorf("csv export: write header: %w", err)
	}

	for _, lp := range run.Located {
		row := []string{
			lp.Postcode.String(),
			strconv.Itoa(lp.AddressCount),
			strconv.FormatFloat(lp.Coordinates.Lat, 'f', -1, 64),
			strconv.FormatFloat(lp.Coordinates.Lon, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv export: write row %q: %w", lp.Postcode, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv export: flush: %w", err)
	}

	return f.Close()
}
