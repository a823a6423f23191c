package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &HTTPClient{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Doer:    resilience.HTTPClient{Client: server.Client(), MaxAttempts: 1},
	}
}

func TestAutocompleteParsesPredictions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/autocomplete/json", r.URL.Path)
		require.Equal(t, "Lausanne", r.URL.Query().Get("input"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","predictions":[{"place_id":"p1","description":"Lausanne, Suisse"}]}`))
	}))

	predictions, err := client.Autocomplete(context.Background(), "Lausanne")
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	require.Equal(t, "p1", predictions[0].PlaceID)
	require.Equal(t, "Lausanne, Suisse", predictions[0].Description)
}

func TestAutocompleteZeroResultsIsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","predictions":[]}`))
	}))
	predictions, err := client.Autocomplete(context.Background(), "zzz")
	require.NoError(t, err)
	require.Empty(t, predictions)
}

func TestPlaceDetailsParsesResult(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/place/details/json", r.URL.Path)
		require.Equal(t, "p1", r.URL.Query().Get("place_id"))
		_, _ = w.Write([]byte(`{"status":"OK","result":{"place_id":"p1","formatted_address":"Rue du Lac 3, 1003 Lausanne","geometry":{"location":{"lat":46.52,"lng":6.63}}}}`))
	}))

	place, err := client.PlaceDetails(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Rue du Lac 3, 1003 Lausanne", place.FormattedAddress)
	require.InDelta(t, 46.52, place.Lat, 0.001)
}

func TestDistanceKmConvertsMeters(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/distancematrix/json", r.URL.Path)
		require.Equal(t, "place_id:a", r.URL.Query().Get("origins"))
		require.Equal(t, "place_id:b", r.URL.Query().Get("destinations"))
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":64518}}]}]}`))
	}))

	km, err := client.DistanceKm(context.Background(), "a", "b")
	require.NoError(t, err)
	require.True(t, km.Equal(decimal.RequireFromString("64.518")), "got %s", km)
}

func TestDistanceKmRouteNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`))
	}))

	_, err := client.DistanceKm(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestCachedClientServesSecondCallFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	var calls int
	inner := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK","distance":{"value":120000}}]}]}`))
	}))
	cached := &CachedClient{Next: inner, Client: redisClient, TTL: time.Hour}

	first, err := cached.DistanceKm(context.Background(), "a", "b")
	require.NoError(t, err)
	require.True(t, first.Equal(decimal.NewFromInt(120)))
	require.Equal(t, 1, calls)

	second, err := cached.DistanceKm(context.Background(), "a", "b")
	require.NoError(t, err)
	require.True(t, second.Equal(decimal.NewFromInt(120)))
	require.Equal(t, 1, calls)
}
