package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/spontis/backend-spontis/internal/obs"
	"github.com/spontis/backend-spontis/internal/resilience"
)

// HTTPClient talks to a Google-Maps-compatible web service. All outbound
// calls go through the resilient wrapper so retries and the circuit breaker
// apply uniformly.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Doer    resilience.HTTPClient
}

var metersPerKm = decimal.NewFromInt(1000)

type autocompleteResponse struct {
	Status      string `json:"status"`
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

// Autocomplete suggests addresses for a partial query.
func (c *HTTPClient) Autocomplete(ctx context.Context, query string) ([]Prediction, error) {
	params := url.Values{}
	params.Set("input", query)
	var payload autocompleteResponse
	if err := c.getJSON(ctx, "/place/autocomplete/json", params, &payload); err != nil {
		countLookup("autocomplete", "error")
		return nil, err
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		countLookup("autocomplete", "error")
		return nil, fmt.Errorf("geo: autocomplete status %s", payload.Status)
	}
	countLookup("autocomplete", "ok")
	out := make([]Prediction, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		out = append(out, Prediction{PlaceID: p.PlaceID, Description: p.Description})
	}
	return out, nil
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		PlaceID          string `json:"place_id"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

// PlaceDetails resolves a place ID into a formatted address and coordinates.
func (c *HTTPClient) PlaceDetails(ctx context.Context, placeID string) (Place, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,formatted_address,geometry")
	var payload detailsResponse
	if err := c.getJSON(ctx, "/place/details/json", params, &payload); err != nil {
		countLookup("details", "error")
		return Place{}, err
	}
	if payload.Status != "OK" {
		countLookup("details", "error")
		return Place{}, fmt.Errorf("geo: place details status %s", payload.Status)
	}
	countLookup("details", "ok")
	return Place{
		PlaceID:          payload.Result.PlaceID,
		FormattedAddress: payload.Result.FormattedAddress,
		Lat:              payload.Result.Geometry.Location.Lat,
		Lng:              payload.Result.Geometry.Location.Lng,
	}, nil
}

type distanceResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int64 `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// DistanceKm returns the driving distance in kilometres between two places.
func (c *HTTPClient) DistanceKm(ctx context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("origins", "place_id:"+originPlaceID)
	params.Set("destinations", "place_id:"+destinationPlaceID)
	params.Set("mode", "driving")
	var payload distanceResponse
	if err := c.getJSON(ctx, "/distancematrix/json", params, &payload); err != nil {
		countLookup("distance", "error")
		return decimal.Decimal{}, err
	}
	if payload.Status != "OK" || len(payload.Rows) == 0 || len(payload.Rows[0].Elements) == 0 {
		countLookup("distance", "error")
		return decimal.Decimal{}, fmt.Errorf("geo: distance matrix status %s", payload.Status)
	}
	element := payload.Rows[0].Elements[0]
	if element.Status != "OK" {
		countLookup("distance", "error")
		return decimal.Decimal{}, ErrRouteNotFound
	}
	countLookup("distance", "ok")
	meters := decimal.NewFromInt(element.Distance.Value)
	return meters.DivRound(metersPerKm, 3), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geo: build request: %w", err)
	}
	resp, err := c.Doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("geo: call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo: call %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geo: decode %s: %w", path, err)
	}
	return nil
}

func countLookup(operation, result string) {
	if obs.GeoLookupTotal != nil {
		obs.GeoLookupTotal.WithLabelValues(operation, result).Inc()
	}
}
