package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/obs"
)

const redisKeyPrefix = "geocode:"

// RedisGeocodeCache stores postcode coordinates as "lat,lon" strings under
// geocode:<postcode> keys. Entries never expire; postcode coordinates are
// effectively static between snapshot releases.
type RedisGeocodeCache struct {
	Client *redis.Client
}

func NewRedisGeocodeCache(client *redis.Client) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client}
}

// Fetch cached coordinates for the given postcodes in a single MGET.
func (r *RedisGeocodeCache) GetMany(
	ctx context.Context,
	postcodes []domain.Postcode,
) (_ map[domain.Postcode]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	if r.Client == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniquePostcodes(postcodes)
	if len(uniq) == 0 {
		return map[domain.Postcode]domain.Coordinates{}, nil
	}

	keys := make([]string, 0, len(uniq))
	for _, p := range uniq {
		keys = append(keys, redisKeyPrefix+p.String())
	}

	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis mget: %w", err)
	}

	out := make(map[domain.Postcode]domain.Coordinates, len(uniq))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}

		c, ok := parseCoordValue(s)
		if !ok {
			// A malformed value is a miss; it will be overwritten on the
			// next PutMany.
			continue
		}
		out[uniq[i]] = c
	}

	return out, nil
}

// Store postcode -> coordinate mappings via a single pipeline.
func (r *RedisGeocodeCache) PutMany(ctx context.Context, results map[domain.Postcode]domain.Coordinates) error {
	if r.Client == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	_, err := r.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for p, c := range results {
			if p.IsZero() {
				return fmt.Errorf("zero postcode key")
			}
			pipe.Set(ctx, redisKeyPrefix+p.String(), formatCoordValue(c), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert geocode cache: redis pipeline: %w", err)
	}

	return nil
}

func formatCoordValue(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func parseCoordValue(s string) (domain.Coordinates, bool) {
	lat, lon, found := strings.Cut(s, ",")
	if !found {
		return domain.Coordinates{}, false
	}

	latF, latErr := strconv.ParseFloat(lat, 64)
	lonF, lonErr := strconv.ParseFloat(lon, 64)
	if latErr != nil || lonErr != nil {
		return domain.Coordinates{}, false
	}

	return domain.Coordinates{Lat: latF, Lon: lonF}, true
}
