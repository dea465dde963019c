package ports

import (
	"context"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// Port: a destination for finished run results (CSV file, KML file, ...).
// Export failures are fatal to the run; exporters must not partially
// swallow errors.
type Exporter interface {
	// Name identifies the output in logs ("postcode csv", "kml placemarks").
	Name() string
	Export(ctx context.Context, run *domain.RunResult) error
}
