package queue_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/queue"
)

func TestMoveToDLQAfterMaxAttempts(t *testing.T) {
	client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemoryStore()
	log := zerolog.New(io.Discard)
	worker := queue.Worker{
		R:                 client,
		Prefix:            "dlq",
		Kind:              "notification",
		Concurrency:       1,
		VisibilityTimeout: 120 * time.Millisecond,
		RetryBase:         20 * time.Millisecond,
		Store:             store,
		Logger:            &log,
		Handler: func(context.Context, queue.Task) error {
			return errors.New("fail")
		},
	}

	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	enq := queue.Enqueuer{R: client, Prefix: "dlq", MaxAttempts: 2}
	require.NoError(t, enq.Enqueue(context.Background(), queue.Task{
		Kind:           "notification",
		Payload:        []byte("body"),
		IdempotencyKey: "dlq1",
		MaxAttempts:    2,
	}))

	// A handler that always fails must land in the DLQ after both attempts.
	require.Eventually(t, func() bool {
		count, err := store.CountQueueDlq(context.Background(), "notification")
		return err == nil && count == 1
	}, 2*time.Second, 20*time.Millisecond)

	snapshot := store.snapshot()
	require.Len(t, snapshot, 1)
	for _, entry := range snapshot {
		require.Equal(t, "notification", entry.Kind)
		require.Equal(t, "dlq1", entry.IdempotencyKey)
		require.Equal(t, 2, entry.Attempts)
		require.NotEmpty(t, entry.Payload)
	}

	cancel()
	<-done
}

func TestUndecodableMemberParkedOnDLQList(t *testing.T) {
	client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := zerolog.New(io.Discard)
	worker := queue.Worker{
		R:           client,
		Prefix:      "poison",
		Kind:        "notification",
		Concurrency: 1,
		Logger:      &log,
		Handler: func(context.Context, queue.Task) error {
			t.Error("handler must not run for undecodable members")
			return nil
		},
	}

	// Seed a member that is not valid task JSON straight into the queue.
	require.NoError(t, client.ZAdd(context.Background(), "poison:queue:notification", redis.Z{
		Score:  1,
		Member: "{not json",
	}).Err())

	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		parked, err := client.LLen(context.Background(), "poison:notification:dlq").Result()
		return err == nil && parked == 1
	}, 2*time.Second, 20*time.Millisecond)

	left, err := client.ZCard(context.Background(), "poison:queue:notification").Result()
	require.NoError(t, err)
	require.Zero(t, left, "poison member must leave the queue")

	entries, err := client.LRange(context.Background(), "poison:notification:dlq", 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, []string{"{not json"}, entries)

	cancel()
	<-done
}
