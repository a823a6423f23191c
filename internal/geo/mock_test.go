package geo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMockClientImplementsClient(t *testing.T) {
	var _ Client = MockClient{}
}

func TestMockClientAutocomplete(t *testing.T) {
	preds, err := MockClient{}.Autocomplete(context.Background(), "Rue du Lac 3")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	require.Equal(t, "mock-rue-du-lac-3", preds[0].PlaceID)

	empty, err := MockClient{}.Autocomplete(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMockClientDistanceIsStable(t *testing.T) {
	c := MockClient{}

	first, err := c.DistanceKm(context.Background(), "place-geneva", "place-zurich")
	require.NoError(t, err)
	again, err := c.DistanceKm(context.Background(), "place-geneva", "place-zurich")
	require.NoError(t, err)
	require.True(t, first.Equal(again), "same pair must resolve to the same distance")
	require.True(t, first.GreaterThan(decimal.Zero), "distance must be positive")

	same, err := c.DistanceKm(context.Background(), "place-geneva", "place-geneva")
	require.NoError(t, err)
	require.True(t, same.IsZero())
}
