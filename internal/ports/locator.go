package ports

import (
	"context"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// Contract for resolving postcodes to geographic coordinates.
//
// Locate returns an entry for every postcode the source could resolve;
// postcodes absent from the result are "not located" rather than an error.
// An error means the source itself failed (unreadable data, transport
// failure after retries) and tells the caller nothing about individual
// postcodes.
type Locator interface {
	// Name identifies the source in logs ("ons snapshot", "geocoding api").
	Name() string
	// Locate resolves coordinates for the given postcodes.
	Locate(ctx context.Context, postcodes []domain.Postcode) (map[domain.Postcode]domain.Coordinates, error)
}
