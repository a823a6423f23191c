package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/spontis/backend-spontis/internal/resilience"
)

// Task represents a job to be processed asynchronously.
type Task struct {
	Kind           string
	Payload        []byte
	IdempotencyKey string
	Attempt        int
	MaxAttempts    int
	Delay          time.Duration
}

// taskMessage is the wire form stored in Redis. AvailableAt doubles as the
// sorted-set score so delayed tasks sort behind due ones.
type taskMessage struct {
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	Payload     []byte `json:"payload"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	AvailableAt int64  `json:"available_at"`
}

func decodeMessage(raw string) (taskMessage, error) {
	var msg taskMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return taskMessage{}, err
	}
	return msg, nil
}

func joinKey(parts ...string) string {
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ":")
}

// sanitizeKind rejects kinds containing anything outside [a-z0-9-_:] so task
// kinds cannot smuggle key separators into the Redis keyspace.
func sanitizeKind(kind string) string {
	for i := 0; i < len(kind); i++ {
		c := kind[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == ':':
		default:
			return ""
		}
	}
	return kind
}

func queueLabel(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}

// Enqueuer publishes tasks to Redis backed queues.
type Enqueuer struct {
	R           *redis.Client
	Prefix      string
	DedupTTL    time.Duration
	MaxAttempts int
}

func (e Enqueuer) queueKey(kind string) string {
	return joinKey(e.Prefix, "queue", kind)
}

func (e Enqueuer) dedupKey(kind, key string) string {
	if e.Prefix == "" {
		return joinKey("queue", "dedup", kind, key)
	}
	return joinKey(e.Prefix, "dedup", kind, key)
}

// Enqueue inserts the task into the queue. If an idempotency key is supplied the
// task is only enqueued once within the configured deduplication window.
func (e Enqueuer) Enqueue(ctx context.Context, t Task) error {
	if e.R == nil {
		return errors.New("queue: redis client not configured")
	}
	kind := sanitizeKind(t.Kind)
	if kind == "" {
		return errors.New("queue: task kind is required")
	}

	msg := taskMessage{
		Kind:        kind,
		Key:         t.IdempotencyKey,
		Payload:     t.Payload,
		Attempt:     t.Attempt,
		MaxAttempts: t.MaxAttempts,
		AvailableAt: time.Now().Add(t.Delay).UnixNano(),
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = e.MaxAttempts
	}
	if msg.MaxAttempts <= 0 {
		msg.MaxAttempts = 10
	}

	if msg.Key != "" {
		ttl := e.DedupTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		fresh, err := e.R.SetNX(ctx, e.dedupKey(kind, msg.Key), "1", ttl).Result()
		if err != nil {
			return err
		}
		if !fresh {
			// A task with this key is already queued or in flight.
			return nil
		}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.R.ZAdd(ctx, e.queueKey(kind), redis.Z{
		Score:  float64(msg.AvailableAt),
		Member: raw,
	}).Err()
}

// Worker consumes tasks for a specific kind.
type Worker struct {
	R                 *redis.Client
	Prefix            string
	Kind              string
	Concurrency       int
	VisibilityTimeout time.Duration
	HeartbeatInterval time.Duration
	SoftDeadline      time.Duration
	Handler           func(context.Context, Task) error
	RetryBase         time.Duration
	RetryJitter       float64
	Store             Store
	Logger            *zerolog.Logger
}

func (w Worker) queueKey(kind string) string {
	return joinKey(w.Prefix, "queue", kind)
}

func (w Worker) processingKey(kind string) string {
	if w.Prefix == "" {
		return joinKey("queue", kind, "processing")
	}
	return joinKey(w.Prefix, kind, "processing")
}

func (w Worker) dlqKey(kind string) string {
	if w.Prefix == "" {
		return joinKey("queue", kind, "dlq")
	}
	return joinKey(w.Prefix, kind, "dlq")
}

func (w Worker) dedupKey(kind, key string) string {
	if w.Prefix == "" {
		return joinKey("queue", "dedup", kind, key)
	}
	return joinKey(w.Prefix, "dedup", kind, key)
}

// Run starts processing tasks until the context is cancelled. Active tasks are
// tracked in a processing set to enable redelivery when workers crash.
func (w Worker) Run(ctx context.Context) error {
	if w.R == nil {
		return errors.New("queue: worker redis client not configured")
	}
	if w.Handler == nil {
		return errors.New("queue: worker handler not configured")
	}
	kind := sanitizeKind(w.Kind)
	if kind == "" {
		return errors.New("queue: worker kind is required")
	}

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	visibility := w.VisibilityTimeout
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	retryBase := w.RetryBase
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}

	queueKey := w.queueKey(kind)
	processingKey := w.processingKey(kind)
	slots := make(chan struct{}, concurrency)
	var active sync.WaitGroup

	reaper := time.NewTicker(time.Second)
	defer reaper.Stop()

	for {
		select {
		case <-ctx.Done():
			active.Wait()
			return nil
		case <-reaper.C:
			if err := w.requeueExpired(ctx, processingKey, queueKey); err != nil {
				return err
			}
		default:
		}

		raw, msg, err := w.claimNext(ctx, queueKey, processingKey, visibility)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if raw == "" {
			continue
		}

		slots <- struct{}{}
		active.Add(1)
		go func(raw string, m taskMessage) {
			defer func() { <-slots }()
			defer active.Done()
			w.process(ctx, kind, queueKey, processingKey, raw, m, visibility, retryBase)
		}(raw, msg)
	}
}

// claimNext pops one due task, bumps its attempt counter and parks it in the
// processing set with a visibility deadline. An empty raw means nothing was
// claimed and the caller should poll again.
func (w Worker) claimNext(ctx context.Context, queueKey, processingKey string, visibility time.Duration) (string, taskMessage, error) {
	res, err := w.R.ZPopMin(ctx, queueKey, 1).Result()
	if err != nil {
		if err == redis.Nil {
			time.Sleep(100 * time.Millisecond)
			return "", taskMessage{}, nil
		}
		return "", taskMessage{}, err
	}
	if len(res) == 0 {
		time.Sleep(100 * time.Millisecond)
		return "", taskMessage{}, nil
	}
	member, ok := res[0].Member.(string)
	if !ok {
		return "", taskMessage{}, nil
	}
	msg, err := decodeMessage(member)
	if err != nil {
		// The member is already popped; park it on the DLQ list so poison
		// input stays inspectable instead of vanishing.
		if w.Logger != nil {
			w.Logger.Error().Err(err).Str("queue", queueKey).Msg("undecodable task moved to dlq")
		}
		_ = w.R.LPush(ctx, w.dlqKey(sanitizeKind(w.Kind)), member).Err()
		return "", taskMessage{}, nil
	}

	now := time.Now().UnixNano()
	if msg.AvailableAt > now {
		// Not due yet. Push it back and nap until roughly its due time.
		w.R.ZAdd(ctx, queueKey, redis.Z{Score: float64(msg.AvailableAt), Member: member})
		nap := time.Duration(msg.AvailableAt - now)
		if nap > time.Second {
			nap = time.Second
		}
		time.Sleep(nap)
		return "", taskMessage{}, nil
	}

	msg.Attempt++
	encoded, err := json.Marshal(msg)
	if err != nil {
		return "", taskMessage{}, nil
	}
	raw := string(encoded)
	deadline := time.Now().Add(visibility).UnixNano()
	if err := w.R.ZAdd(ctx, processingKey, redis.Z{Score: float64(deadline), Member: raw}).Err(); err != nil {
		return "", taskMessage{}, err
	}
	return raw, msg, nil
}

func (w Worker) process(ctx context.Context, kind, queueKey, processingKey, raw string, msg taskMessage, visibility time.Duration, retryBase time.Duration) {
	var jobCtx context.Context
	var cancel context.CancelFunc
	if w.SoftDeadline > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, w.SoftDeadline)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if w.HeartbeatInterval > 0 {
		go w.heartbeat(jobCtx, processingKey, raw, visibility)
	}

	err := w.Handler(jobCtx, Task{
		Kind:           kind,
		Payload:        msg.Payload,
		IdempotencyKey: msg.Key,
		Attempt:        msg.Attempt,
		MaxAttempts:    msg.MaxAttempts,
	})

	// Bookkeeping must survive job cancellation.
	book := context.WithoutCancel(ctx)
	if err != nil {
		w.handleFailure(book, queueKey, processingKey, raw, msg, retryBase, err)
		return
	}
	w.ack(book, processingKey, raw, msg)
}

func (w Worker) heartbeat(ctx context.Context, processingKey, raw string, visibility time.Duration) {
	ticker := time.NewTicker(w.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(visibility).UnixNano()
			_ = w.R.ZAddXX(context.WithoutCancel(ctx), processingKey, redis.Z{Score: float64(deadline), Member: raw}).Err()
		}
	}
}

func (w Worker) handleFailure(ctx context.Context, queueKey, processingKey, raw string, msg taskMessage, base time.Duration, jobErr error) {
	if raw != "" {
		_ = w.R.ZRem(ctx, processingKey, raw)
	}
	if msg.MaxAttempts > 0 && msg.Attempt >= msg.MaxAttempts {
		w.moveToDLQ(ctx, msg, jobErr)
		if msg.Key != "" {
			_ = w.R.Del(ctx, w.dedupKey(msg.Kind, msg.Key)).Err()
		}
		return
	}

	if w.Logger != nil {
		w.Logger.Warn().Err(jobErr).Str("kind", msg.Kind).Int("attempt", msg.Attempt).Msg("task failed, scheduling retry")
	}
	if QueueProcessedTotal != nil {
		QueueProcessedTotal.WithLabelValues(queueLabel(msg.Kind), "retry").Inc()
	}

	msg.AvailableAt = time.Now().Add(resilience.Backoff(base, msg.Attempt, w.RetryJitter)).UnixNano()
	encoded, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = w.R.ZAdd(ctx, queueKey, redis.Z{Score: float64(msg.AvailableAt), Member: string(encoded)}).Err()
}

func (w Worker) moveToDLQ(ctx context.Context, msg taskMessage, jobErr error) {
	if w.Logger != nil {
		w.Logger.Error().Err(jobErr).Str("kind", msg.Kind).Int("attempts", msg.Attempt).Msg("task exhausted retries, moving to dlq")
	}
	if QueueProcessedTotal != nil {
		QueueProcessedTotal.WithLabelValues(queueLabel(msg.Kind), "dead").Inc()
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return
	}

	if w.Store != nil {
		entry := DLQEntry{
			Kind:           msg.Kind,
			IdempotencyKey: msg.Key,
			Payload:        encoded,
			Attempts:       msg.Attempt,
			CreatedAt:      time.Now(),
		}
		if jobErr != nil {
			reason := jobErr.Error()
			entry.LastError = &reason
		}
		if _, err := w.Store.InsertQueueDlq(ctx, entry); err == nil {
			return
		} else if w.Logger != nil {
			w.Logger.Error().Err(err).Str("kind", msg.Kind).Msg("persist dlq entry")
		}
	}
	// Fall back to a Redis list so the task is never silently dropped.
	_ = w.R.LPush(ctx, w.dlqKey(msg.Kind), encoded).Err()
}

func (w Worker) ack(ctx context.Context, processingKey, raw string, msg taskMessage) {
	if raw != "" {
		_ = w.R.ZRem(ctx, processingKey, raw)
	}
	if msg.Key != "" {
		_ = w.R.Del(ctx, w.dedupKey(msg.Kind, msg.Key)).Err()
	}
	if QueueProcessedTotal != nil {
		QueueProcessedTotal.WithLabelValues(queueLabel(msg.Kind), "ok").Inc()
	}
}

// requeueExpired sweeps the processing set for tasks whose visibility deadline
// passed, which happens when a worker died mid-job.
func (w Worker) requeueExpired(ctx context.Context, processingKey, queueKey string) error {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	expired, err := w.R.ZRangeByScore(ctx, processingKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, raw := range expired {
		msg, err := decodeMessage(raw)
		if err != nil {
			continue
		}
		_ = w.R.ZRem(ctx, processingKey, raw).Err()
		msg.AvailableAt = time.Now().UnixNano()
		encoded, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		_ = w.R.ZAdd(ctx, queueKey, redis.Z{Score: float64(msg.AvailableAt), Member: encoded}).Err()
	}
	return nil
}
