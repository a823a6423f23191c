package notify

import (
	"context"
	"encoding/json"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/events"
	"github.com/spontis/backend-spontis/internal/queue"
)

func TestWarmNotifierEnqueuesReturnLeg(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := WarmNotifier{Queue: queue.Enqueuer{R: client, Prefix: "warm"}}

	event := domainEvent(t, events.TopicMandatCreated, map[string]any{
		"pickup_place_id":   "place-geneva",
		"delivery_place_id": "place-zurich",
	})
	require.NoError(t, n.Notify(context.Background(), event))

	members, err := client.ZRange(context.Background(), "warm:queue:"+WarmDistanceTask(), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, members, 1)

	// The member is the queue wire form; its payload carries the task.
	var wire struct {
		Payload []byte `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(members[0]), &wire))
	var task warmDistancePayload
	require.NoError(t, json.Unmarshal(wire.Payload, &task))
	// The return leg is warmed: delivery becomes the origin.
	require.Equal(t, "place-zurich", task.OriginPlaceID)
	require.Equal(t, "place-geneva", task.DestinationPlaceID)
}

func TestWarmNotifierIgnoresOtherTopics(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := WarmNotifier{Queue: queue.Enqueuer{R: client, Prefix: "warm"}}

	event := domainEvent(t, events.TopicMandatDelivered, map[string]any{
		"pickup_place_id":   "place-geneva",
		"delivery_place_id": "place-zurich",
	})
	require.NoError(t, n.Notify(context.Background(), event))

	size, err := client.ZCard(context.Background(), "warm:queue:"+WarmDistanceTask()).Result()
	require.NoError(t, err)
	require.Zero(t, size)
}

type recordingResolver struct {
	origins      []string
	destinations []string
}

func (r *recordingResolver) DistanceKm(_ context.Context, origin, destination string) (decimal.Decimal, error) {
	r.origins = append(r.origins, origin)
	r.destinations = append(r.destinations, destination)
	return decimal.NewFromInt(42), nil
}

func TestDistanceWarmerResolvesPair(t *testing.T) {
	resolver := &recordingResolver{}
	warmer := DistanceWarmer{Geo: resolver}

	raw, err := json.Marshal(warmDistancePayload{
		OriginPlaceID:      "place-zurich",
		DestinationPlaceID: "place-geneva",
	})
	require.NoError(t, err)

	require.NoError(t, warmer.Handle(context.Background(), raw))
	require.Equal(t, []string{"place-zurich"}, resolver.origins)
	require.Equal(t, []string{"place-geneva"}, resolver.destinations)
}

func TestDistanceWarmerSkipsIncompletePayload(t *testing.T) {
	resolver := &recordingResolver{}
	warmer := DistanceWarmer{Geo: resolver}

	raw, err := json.Marshal(warmDistancePayload{OriginPlaceID: "place-zurich"})
	require.NoError(t, err)

	require.NoError(t, warmer.Handle(context.Background(), raw))
	require.Empty(t, resolver.origins)
}
