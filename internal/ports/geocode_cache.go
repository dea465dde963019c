package ports

import (
	"context"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// Port: a persistent postcode -> coordinates cache consulted before any
// locator source. Implementations must tolerate unknown postcodes (absent
// from GetMany results) and overwrite existing entries on PutMany.
type GeocodeCache interface {
	GetMany(ctx context.Context, postcodes []domain.Postcode) (map[domain.Postcode]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[domain.Postcode]domain.Coordinates) error
}
