package services

import (
	"context"
	"errors"
	"testing"

	"github.com/marmstr93ng/PostcodeParse/internal/adapters/geocode"
	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

// memCache is an in-memory ports.GeocodeCache.
type memCache struct {
	m       map[domain.Postcode]domain.Coordinates
	getErr  error
	putErr  error
	putSeen int
}

func newMemCache() *memCache {
	return &memCache{m: make(map[domain.Postcode]domain.Coordinates)}
}

func (c *memCache) GetMany(ctx context.Context, postcodes []domain.Postcode) (map[domain.Postcode]domain.Coordinates, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := make(map[domain.Postcode]domain.Coordinates)
	for _, p := range postcodes {
		if coord, ok := c.m[p]; ok {
			out[p] = coord
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, results map[domain.Postcode]domain.Coordinates) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.putSeen += len(results)
	for p, coord := range results {
		c.m[p] = coord
	}
	return nil
}

func TestChainLocatorConsultsSourcesInOrder(t *testing.T) {
	first := mustPostcode(t, "BT1 1AA")
	second := mustPostcode(t, "BT1 2BB")
	missing := mustPostcode(t, "BT1 3CC")

	primary := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		first: {Lat: 1, Lon: 1},
	})
	fallback := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		// Also knows first with different coordinates; must not win.
		first:  {Lat: 9, Lon: 9},
		second: {Lat: 2, Lon: 2},
	})

	chain := NewChainLocator(discardLogger(), primary, fallback)
	got, err := chain.Locate(context.Background(), []domain.Postcode{first, second, missing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("resolved = %d, want 2", len(got))
	}
	if got[first].Lat != 1 {
		t.Errorf("first source result overridden: %v", got[first])
	}
	if got[second].Lat != 2 {
		t.Errorf("fallback result missing: %v", got[second])
	}

	// The fallback must only have seen unresolved postcodes.
	if len(fallback.Calls) != 1 || len(fallback.Calls[0]) != 2 {
		t.Fatalf("fallback calls = %v, want one call with 2 postcodes", fallback.Calls)
	}
}

func TestChainLocatorSurvivesFailingSource(t *testing.T) {
	p := mustPostcode(t, "BT1 1AA")

	broken := geocode.NewMockLocator(nil)
	broken.Err = errors.New("boom")
	working := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		p: {Lat: 1, Lon: 1},
	})

	chain := NewChainLocator(discardLogger(), broken, working)
	got, err := chain.Locate(context.Background(), []domain.Postcode{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got[p]; !ok {
		t.Fatal("working source result missing")
	}
}

func TestChainLocatorAllSourcesFailed(t *testing.T) {
	broken := geocode.NewMockLocator(nil)
	broken.Err = errors.New("boom")

	chain := NewChainLocator(discardLogger(), broken)
	_, err := chain.Locate(context.Background(), []domain.Postcode{mustPostcode(t, "BT1 1AA")})
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestCachedLocatorReadsAndWritesBack(t *testing.T) {
	hit := mustPostcode(t, "BT1 1AA")
	miss := mustPostcode(t, "BT1 2BB")

	cache := newMemCache()
	cache.m[hit] = domain.Coordinates{Lat: 1, Lon: 1}

	inner := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		miss: {Lat: 2, Lon: 2},
	})

	cached := NewCachedLocator(discardLogger(), inner, cache)
	got, err := cached.Locate(context.Background(), []domain.Postcode{hit, miss})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("resolved = %d, want 2", len(got))
	}

	// The inner locator must only have seen the miss.
	if len(inner.Calls) != 1 || len(inner.Calls[0]) != 1 || inner.Calls[0][0] != miss {
		t.Fatalf("inner calls = %v, want one call with only the miss", inner.Calls)
	}

	// The fresh resolution must have been written back.
	if _, ok := cache.m[miss]; !ok {
		t.Error("fresh resolution not written to cache")
	}
}

func TestCachedLocatorSkipsInnerOnFullHit(t *testing.T) {
	p := mustPostcode(t, "BT1 1AA")

	cache := newMemCache()
	cache.m[p] = domain.Coordinates{Lat: 1, Lon: 1}
	inner := geocode.NewMockLocator(nil)

	cached := NewCachedLocator(discardLogger(), inner, cache)
	got, err := cached.Locate(context.Background(), []domain.Postcode{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("resolved = %d, want 1", len(got))
	}
	if len(inner.Calls) != 0 {
		t.Errorf("inner locator called %d times on full cache hit", len(inner.Calls))
	}
}

func TestCachedLocatorDegradesOnCacheFailure(t *testing.T) {
	p := mustPostcode(t, "BT1 1AA")

	cache := newMemCache()
	cache.getErr = errors.New("cache down")
	cache.putErr = errors.New("cache down")

	inner := geocode.NewMockLocator(map[domain.Postcode]domain.Coordinates{
		p: {Lat: 1, Lon: 1},
	})

	cached := NewCachedLocator(discardLogger(), inner, cache)
	got, err := cached.Locate(context.Background(), []domain.Postcode{p})
	if err != nil {
		t.Fatalf("cache failure must not fail the lookup: %v", err)
	}
	if _, ok := got[p]; !ok {
		t.Fatal("inner result missing")
	}
}
