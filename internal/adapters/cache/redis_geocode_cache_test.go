package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
)

func openTestRedis(t *testing.T) *RedisGeocodeCache {
	t.Helper()
	srv := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGeocodeCache(client)
}

func TestRedisGeocodeCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestRedis(t)

	first := mustPostcode(t, "BT1 1AA")
	missing := mustPostcode(t, "ZZ9 9ZZ")

	require.NoError(t, c.PutMany(ctx, map[domain.Postcode]domain.Coordinates{
		first: {Lat: 54.6, Lon: -5.93},
	}))

	got, err := c.GetMany(ctx, []domain.Postcode{first, missing})
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.InDelta(t, 54.6, got[first].Lat, 1e-9)
	require.InDelta(t, -5.93, got[first].Lon, 1e-9)
}

func TestRedisGeocodeCacheKeyLayout(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisGeocodeCache(client)

	p := mustPostcode(t, "BT1 1AA")
	require.NoError(t, c.PutMany(ctx, map[domain.Postcode]domain.Coordinates{p: {Lat: 54.6, Lon: -5.93}}))

	v, err := srv.Get("geocode:BT1 1AA")
	require.NoError(t, err)
	require.Equal(t, "54.6,-5.93", v)
}

func TestRedisGeocodeCacheMalformedValueIsMiss(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisGeocodeCache(client)

	require.NoError(t, srv.Set("geocode:BT1 1AA", "not-coordinates"))

	got, err := c.GetMany(ctx, []domain.Postcode{mustPostcode(t, "BT1 1AA")})
	require.NoError(t, err)
	require.Empty(t, got)
}
