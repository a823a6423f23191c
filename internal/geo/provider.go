package geo

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/spontis/backend-spontis/internal/common"
)

// Prediction is one address suggestion returned by autocomplete.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Place holds the resolved details of a place ID.
type Place struct {
	PlaceID          string  `json:"place_id"`
	FormattedAddress string  `json:"formatted_address"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

// Client resolves addresses and road distances through a mapping provider.
type Client interface {
	Autocomplete(ctx context.Context, query string) ([]Prediction, error)
	PlaceDetails(ctx context.Context, placeID string) (Place, error)
	// DistanceKm returns the driving distance between two place IDs in
	// kilometres.
	DistanceKm(ctx context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error)
}

// ErrRouteNotFound is returned when the provider cannot compute a route
// between the two places.
var ErrRouteNotFound = common.NewAppError("ROUTE_NOT_FOUND", "no route found between the given addresses", http.StatusUnprocessableEntity, nil)
