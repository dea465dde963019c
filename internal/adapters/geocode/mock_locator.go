package geocode

import (
	"context"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// MockLocator serves a fixed postcode -> coordinates table. Used by
// pipeline tests in place of the HTTP client.
type MockLocator struct {
	m     map[domain.Postcode]domain.Coordinates
	Err   error
	Calls [][]domain.Postcode
}

func NewMockLocator(coords map[domain.Postcode]domain.Coordinates) *MockLocator {
	m := make(map[domain.Postcode]domain.Coordinates, len(coords))
	for p, c := range coords {
		m[p] = c
	}
	return &MockLocator{m: m}
}

func (l *MockLocator) Name() string { return "mock" }

func (l *MockLocator) Locate(
	ctx context.Context,
	postcodes []domain.Postcode,
) (map[domain.Postcode]domain.Coordinates, error) {
	l.Calls = append(l.Calls, append([]domain.Postcode(nil), postcodes...))

	if l.Err != nil {
		return nil, l.Err
	}

	out := make(map[domain.Postcode]domain.Coordinates)
	for _, p := range postcodes {
		if c, ok := l.m[p]; ok {
			out[p] = c
		}
	}
	return out, nil
}
