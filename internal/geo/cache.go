package geo

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spontis/backend-spontis/internal/cache"
	"github.com/spontis/backend-spontis/internal/obs"
)

// CachedClient memoises road distances in Redis. Distances between fixed
// place IDs change rarely, so a long TTL saves most distance matrix calls.
// Autocomplete and place details pass through uncached.
type CachedClient struct {
	Next   Client
	Client *redis.Client
	TTL    time.Duration
}

func (c *CachedClient) Autocomplete(ctx context.Context, query string) ([]Prediction, error) {
	return c.Next.Autocomplete(ctx, query)
}

func (c *CachedClient) PlaceDetails(ctx context.Context, placeID string) (Place, error) {
	return c.Next.PlaceDetails(ctx, placeID)
}

func (c *CachedClient) DistanceKm(ctx context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error) {
	key := cache.KeyDistance(originPlaceID, destinationPlaceID)
	if c.Client != nil {
		if raw, err := c.Client.Get(ctx, key).Result(); err == nil {
			if km, parseErr := decimal.NewFromString(raw); parseErr == nil {
				countDistanceCache("hit")
				return km, nil
			}
		}
		countDistanceCache("miss")
	}
	km, err := c.Next.DistanceKm(ctx, originPlaceID, destinationPlaceID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if c.Client != nil {
		if err := c.Client.Set(ctx, key, km.String(), c.TTL).Err(); err != nil {
			log.Warn().Err(err).Msg("geo: cache distance")
		}
	}
	return km, nil
}

func countDistanceCache(result string) {
	if obs.GeoDistanceCacheTotal != nil {
		obs.GeoDistanceCacheTotal.WithLabelValues(result).Inc()
	}
}
