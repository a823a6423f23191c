package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/spontis/backend-spontis/internal/common"
	"github.com/spontis/backend-spontis/internal/config"
	"github.com/spontis/backend-spontis/internal/geo"
	"github.com/spontis/backend-spontis/internal/lock"
	"github.com/spontis/backend-spontis/internal/notify"
	"github.com/spontis/backend-spontis/internal/obs"
	"github.com/spontis/backend-spontis/internal/queue"
	"github.com/spontis/backend-spontis/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	dlqStore := queue.NewStore(pool)
	locker := lock.Locker{R: redisClient, RetryBackoff: cfg.LockRetryBackoff}

	mailer := buildMailer(cfg, logger)
	emailWorkerHandler := notify.EmailWorker{
		Notifier: notify.EmailNotifier{
			Mail:         mailer,
			Enabled:      cfg.NotifyEmailEnabled,
			From:         cfg.NotifyEmailFrom,
			TopicToggles: topicToggles(cfg.NotifyEmailDisabledTopics),
		},
	}

	geoClient := &geo.CachedClient{
		Next: &geo.HTTPClient{
			BaseURL: cfg.MapsBaseURL,
			APIKey:  cfg.MapsAPIKey,
			Doer: resilience.HTTPClient{
				Client:      &http.Client{Timeout: cfg.OutboundTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
				Breaker:     resilience.NewBreaker(cfg.CircuitGeoMinReq, cfg.CircuitGeoFailureRate, cfg.CircuitGeoOpenFor),
				BaseBackoff: cfg.RetryBase,
				MaxAttempts: cfg.RetryMaxAttempts,
				Jitter:      cfg.RetryJitterPercent,
				Timeout:     cfg.OutboundTimeout,
			},
		},
		Client: redisClient,
		TTL:    cfg.DistanceCacheTTL,
	}
	distanceWarmer := notify.DistanceWarmer{Geo: geoClient}

	emailWorker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueueRedisPrefix,
		Kind:              notify.EmailTask(),
		Concurrency:       cfg.WorkerConcurrency,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		HeartbeatInterval: cfg.WorkerHeartbeatInterval,
		SoftDeadline:      cfg.WorkerJobSoftDeadline,
		RetryBase:         cfg.QueueBackoffBase,
		RetryJitter:       cfg.QueueBackoffJitter,
		Store:             dlqStore,
		Logger:            &logger,
		Handler: func(jobCtx context.Context, task queue.Task) error {
			if task.IdempotencyKey == "" {
				return emailWorkerHandler.Handle(jobCtx, task.Payload)
			}
			// serialise deliveries of the same event across worker replicas
			return locker.WithLock(jobCtx, "notify:"+task.IdempotencyKey, cfg.LockTTL, func(lockCtx context.Context) error {
				return emailWorkerHandler.Handle(lockCtx, task.Payload)
			})
		},
	}

	warmWorker := queue.Worker{
		R:                 redisClient,
		Prefix:            cfg.QueueRedisPrefix,
		Kind:              notify.WarmDistanceTask(),
		Concurrency:       2,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
		HeartbeatInterval: cfg.WorkerHeartbeatInterval,
		SoftDeadline:      cfg.WorkerJobSoftDeadline,
		RetryBase:         cfg.QueueBackoffBase,
		RetryJitter:       cfg.QueueBackoffJitter,
		Store:             dlqStore,
		Logger:            &logger,
		Handler: func(jobCtx context.Context, task queue.Task) error {
			return distanceWarmer.Handle(jobCtx, task.Payload)
		},
	}

	logger.Info().Msg("worker starting")
	var wg sync.WaitGroup
	for _, w := range []queue.Worker{emailWorker, warmWorker} {
		wg.Add(1)
		go func(w queue.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("kind", w.Kind).Msg("worker stopped with error")
			}
		}(w)
	}
	wg.Wait()
	logger.Info().Msg("worker shutdown complete")
}

func buildMailer(cfg *config.Config, logger zerolog.Logger) common.EmailSender {
	if !cfg.NotifyEmailEnabled {
		return common.NopEmailSender{}
	}
	if envOrDefault("SMTP_HOST", "") == "" {
		logger.Warn().Msg("SMTP_HOST not set, outgoing email disabled")
		return common.NopEmailSender{}
	}
	return common.SMTPEmailSender{
		Host:     envOrDefault("SMTP_HOST", ""),
		Port:     envOrDefault("SMTP_PORT", "587"),
		Username: envOrDefault("SMTP_USERNAME", ""),
		Password: envOrDefault("SMTP_PASSWORD", ""),
		From:     cfg.NotifyEmailFrom,
	}
}

func topicToggles(disabled []string) map[string]bool {
	if len(disabled) == 0 {
		return nil
	}
	toggles := make(map[string]bool, len(disabled))
	for _, topic := range disabled {
		toggles[topic] = false
	}
	return toggles
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "spontis-worker"
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.DBMaxConns)
	}
	if cfg.DBMinConns > 0 {
		poolConfig.MinConns = int32(cfg.DBMinConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
