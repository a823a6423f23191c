package geo

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/shopspring/decimal"
)

// MockClient returns deterministic places and distances and is useful for
// testing and development.
type MockClient struct{}

// Autocomplete suggests a single canned place derived from the query.
func (MockClient) Autocomplete(_ context.Context, query string) ([]Prediction, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return []Prediction{
		{PlaceID: "mock-" + mockSlug(query), Description: query + ", Suisse"},
	}, nil
}

// PlaceDetails resolves any place ID to a fixed Lausanne address.
func (MockClient) PlaceDetails(_ context.Context, placeID string) (Place, error) {
	return Place{
		PlaceID:          placeID,
		FormattedAddress: "Place de la Gare 1, 1003 Lausanne",
		Lat:              46.5197,
		Lng:              6.6323,
	}, nil
}

// DistanceKm derives a stable pseudo-distance from the place pair so repeated
// lookups agree without a network call. Identical places are zero kilometres
// apart.
func (MockClient) DistanceKm(_ context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error) {
	if originPlaceID == destinationPlaceID {
		return decimal.Zero, nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(originPlaceID + ">" + destinationPlaceID))
	return decimal.NewFromInt(20 + int64(h.Sum32()%480)), nil
}

func mockSlug(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}
