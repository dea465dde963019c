package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/ports"
)

// ChainLocator consults sources in order, only forwarding postcodes the
// earlier sources could not resolve. A failing source is logged and
// skipped rather than failing the batch; the chain itself only errors when
// every source errors and nothing was resolved.
type ChainLocator struct {
	Sources []ports.Locator
	Log     *slog.Logger
}

func NewChainLocator(log *slog.Logger, sources ...ports.Locator) *ChainLocator {
	return &ChainLocator{Sources: sources, Log: log}
}

func (c *ChainLocator) Name() string { return "locator chain" }

func (c *ChainLocator) Locate(
	ctx context.Context,
	postcodes []domain.Postcode,
) (map[domain.Postcode]domain.Coordinates, error) {
	out := make(map[domain.Postcode]domain.Coordinates, len(postcodes))
	remaining := postcodes

	var failures int
	for _, src := range c.Sources {
		if len(remaining) == 0 {
			break
		}

		results, err := src.Locate(ctx, remaining)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			c.Log.Warn("locator source failed",
				slog.String("source", src.Name()),
				slog.Any("err", err),
			)
			continue
		}

		next := make([]domain.Postcode, 0, len(remaining))
		for _, p := range remaining {
			if coord, ok := results[p]; ok {
				out[p] = coord
			} else {
				next = append(next, p)
			}
		}
		remaining = next
	}

	if failures == len(c.Sources) && len(out) == 0 && len(postcodes) > 0 {
		return nil, fmt.Errorf("locate: all %d sources failed", failures)
	}

	return out, nil
}

// CachedLocator is a cache-aside wrapper: hits come from the cache, misses
// go to the inner locator and fresh resolutions are written back. A cache
// that cannot be read or written degrades to the inner locator with a
// warning rather than failing the run.
type CachedLocator struct {
	Inner ports.Locator
	Cache ports.GeocodeCache
	Log   *slog.Logger
}

func NewCachedLocator(log *slog.Logger, inner ports.Locator, cache ports.GeocodeCache) *CachedLocator {
	return &CachedLocator{Inner: inner, Cache: cache, Log: log}
}

func (c *CachedLocator) Name() string { return c.Inner.Name() }

func (c *CachedLocator) Locate(
	ctx context.Context,
	postcodes []domain.Postcode,
) (map[domain.Postcode]domain.Coordinates, error) {
	hits := make(map[domain.Postcode]domain.Coordinates)
	if c.Cache != nil {
		var err error
		hits, err = c.Cache.GetMany(ctx, postcodes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.Log.Warn("geocode cache read failed", slog.Any("err", err))
			hits = make(map[domain.Postcode]domain.Coordinates)
		}
	}

	misses := make([]domain.Postcode, 0, len(postcodes))
	for _, p := range postcodes {
		if _, ok := hits[p]; !ok {
			misses = append(misses, p)
		}
	}

	if len(misses) == 0 {
		return hits, nil
	}

	fresh, err := c.Inner.Locate(ctx, misses)
	if err != nil {
		return nil, err
	}

	if c.Cache != nil && len(fresh) > 0 {
		if err := c.Cache.PutMany(ctx, fresh); err != nil {
			c.Log.Warn("geocode cache write failed", slog.Any("err", err))
		}
	}

	out := make(map[domain.Postcode]domain.Coordinates, len(hits)+len(fresh))
	for p, coord := range hits {
		out[p] = coord
	}
	for p, coord := range fresh {
		out[p] = coord
	}

	return out, nil
}
