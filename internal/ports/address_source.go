package ports

import (
	"context"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// Port: a boundary for streaming delivery points from an address data set.
// Sources may be large, so rows are visited one at a time rather than
// loaded into a slice.
type AddressSource interface {
	// Count returns the total number of rows, for progress display.
	Count(ctx context.Context) (int64, error)
	// Scan visits every row in order. Returning an error from fn aborts
	// the scan and surfaces that error.
	Scan(ctx context.Context, fn func(domain.DeliveryPoint) error) error
}
