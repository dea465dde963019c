package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// MarkerExporter writes an empty "<DISTRICTS> Postcodes.txt" file so the
// districts a folder covers are visible at a glance in a file listing.
type MarkerExporter struct {
	Dir string
}

func NewMarkerExporter(dir string) *MarkerExporter {
	return &MarkerExporter{Dir: dir}
}

func (e *MarkerExporter) Name() string { return "district marker" }

func (e *MarkerExporter) Export(ctx context.Context, run *domain.RunResult) error {
	path := filepath.Join(e.Dir, run.DistrictLabel()+" Postcodes.txt")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("marker export: create %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("marker export: close %q: %w", path, err)
	}

	return nil
}
