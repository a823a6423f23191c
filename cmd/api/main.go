package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spontis/backend-spontis/internal/app"
	"github.com/spontis/backend-spontis/internal/auth"
	"github.com/spontis/backend-spontis/internal/common"
	"github.com/spontis/backend-spontis/internal/company"
	"github.com/spontis/backend-spontis/internal/config"
	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
	"github.com/spontis/backend-spontis/internal/geo"
	"github.com/spontis/backend-spontis/internal/health"
	"github.com/spontis/backend-spontis/internal/mandate"
	"github.com/spontis/backend-spontis/internal/notify"
	"github.com/spontis/backend-spontis/internal/obs"
	"github.com/spontis/backend-spontis/internal/pricingset"
	"github.com/spontis/backend-spontis/internal/queue"
	"github.com/spontis/backend-spontis/internal/ratelimit"
	"github.com/spontis/backend-spontis/internal/resilience"
	"github.com/spontis/backend-spontis/internal/security"
	"github.com/spontis/backend-spontis/internal/storage"
)

const (
	accessCookieName  = "spontis_access"
	refreshCookieName = "spontis_refresh"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "spontis")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "spontis-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.RunMigrations {
		m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrations")
		}
		if err := app.RunMigrations(m); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "spontis-api"
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
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := dbgen.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskQueue := queue.Enqueuer{
		R:           redisClient,
		Prefix:      cfg.QueueRedisPrefix,
		DedupTTL:    cfg.IdempotencyTTL,
		MaxAttempts: cfg.QueueMaxAttempts,
	}
	bus := &events.Bus{
		Store: queries,
		Notifiers: []events.Notifier{
			notify.QueueNotifier{Queue: taskQueue, MaxAttempts: cfg.QueueMaxAttempts},
			notify.WarmNotifier{Queue: taskQueue},
		},
	}

	authService, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          "spontis-api",
		Audience:        "spontis",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:        authService,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
		AccessCookie:   accessCookieName,
		RefreshCookie:  refreshCookieName,
	}
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: accessCookieName}

	pricingService := &pricingset.Service{
		Q:     queries,
		Pool:  pool,
		Cache: pricingset.NewCache(redisClient, cfg.ActiveSetCacheTTL),
	}
	pricingHandler := &pricingset.Handler{Service: pricingService}

	var geoProvider geo.Client
	if cfg.MapsAPIKey != "" {
		geoProvider = &geo.HTTPClient{
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
		}
	} else {
		logger.Warn().Msg("MAPS_API_KEY not set, using mock geo client")
		geoProvider = geo.MockClient{}
	}
	geoClient := &geo.CachedClient{
		Next:   geoProvider,
		Client: redisClient,
		TTL:    cfg.DistanceCacheTTL,
	}
	geoHandler := &geo.Handler{Client: geoClient}

	mandateService := &mandate.Service{Q: queries, Geo: geoClient, Pricing: pricingService, Events: bus}
	mandateHandler := &mandate.Handler{Service: mandateService}

	companyService := &company.Service{Q: queries, Events: bus, InvitationTTL: cfg.InvitationTTL}
	companyHandler := &company.Handler{Service: companyService}

	var objectStore storage.Store
	if cfg.StorageBaseURL != "" {
		objectStore = &storage.HTTPStore{
			BaseURL: cfg.StorageBaseURL,
			APIKey:  cfg.StorageAPIKey,
			Bucket:  cfg.StorageBucket,
			Doer: resilience.HTTPClient{
				Client:      &http.Client{Timeout: cfg.OutboundTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
				BaseBackoff: cfg.RetryBase,
				MaxAttempts: cfg.RetryMaxAttempts,
				Jitter:      cfg.RetryJitterPercent,
				Timeout:     cfg.OutboundTimeout,
			},
		}
	} else {
		logger.Warn().Msg("STORAGE_BASE_URL not set, using in-memory object store")
		objectStore = storage.NewMemory()
	}
	uploadHandler := &storage.Handler{
		Store:    objectStore,
		MaxBytes: cfg.MaxUploadBytes,
		Logos:    companyService,
		Photos:   mandateService,
	}

	queueAdmin := &queue.AdminHandler{
		Store:             queue.NewStore(pool),
		Queue:             taskQueue,
		PageSize:          50,
		Logger:            logger,
		VisibilityTimeout: cfg.QueueVisibilityTimeout,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	rateLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl"},
		Config: ratelimit.Config{
			Key: func(r *http.Request) string {
				if userID, ok := common.UserID(r.Context()); ok {
					return "user:" + userID
				}
				return "ip:" + strings.SplitN(r.RemoteAddr, ":", 2)[0]
			},
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxUploadBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimiter.Middleware)

		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		v.Route("/geo", func(g chi.Router) {
			g.Use(authMiddleware.RequireAuth)
			g.Get("/autocomplete", geoHandler.Autocomplete)
			g.Get("/places/{placeID}", geoHandler.PlaceDetails)
		})

		v.Route("/companies", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Post("/", companyHandler.Create)
			c.Get("/me", companyHandler.Mine)
			c.Patch("/me", companyHandler.Update)
			c.Post("/me/logo", uploadHandler.UploadLogo)
			c.Get("/me/members", companyHandler.Members)
			c.Delete("/me/members/{userID}", companyHandler.RemoveMember)
			c.Post("/me/invitations", companyHandler.Invite)
			c.Get("/me/invitations", companyHandler.Invitations)
			c.Delete("/me/invitations/{id}", companyHandler.RevokeInvitation)
			c.Post("/invitations/accept", companyHandler.AcceptInvitation)
		})

		v.Route("/mandats", func(m chi.Router) {
			m.Use(authMiddleware.RequireAuth)
			m.Post("/quote", mandateHandler.Quote)
			m.Get("/", mandateHandler.ListOwn)
			m.Get("/open", mandateHandler.ListOpen)
			m.Get("/{id}", mandateHandler.Get)
			m.Group(func(mut chi.Router) {
				mut.Use(idem.Middleware)
				mut.Post("/", mandateHandler.Create)
				mut.Post("/{id}/accept", mandateHandler.Accept)
			})
			m.Patch("/{id}/status", mandateHandler.UpdateStatus)
			m.Post("/{id}/photo", uploadHandler.UploadMandatPhoto)
		})

		v.With(authMiddleware.RequireAuth).Get("/pricing-sets/active", pricingHandler.Active)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(authMiddleware.RequireAdmin)

			admin.Get("/pricing-sets", pricingHandler.List)
			admin.Post("/pricing-sets", pricingHandler.Create)
			admin.Get("/pricing-sets/{id}", pricingHandler.Get)
			admin.Put("/pricing-sets/{id}", pricingHandler.Update)
			admin.Post("/pricing-sets/{id}/activate", pricingHandler.Activate)

			admin.Get("/mandats", mandateHandler.AdminList)
			admin.Get("/mandats/{id}/events", mandateHandler.AdminEvents)
			admin.Post("/mandats/{id}/suspend", mandateHandler.AdminSuspend)
			admin.Post("/mandats/{id}/cancel", mandateHandler.AdminCancel)
			admin.Post("/mandats/{id}/reopen", mandateHandler.AdminReopen)

			admin.Get("/queue/dlq", queueAdmin.ListDLQ)
			admin.Post("/queue/dlq/replay", queueAdmin.ReplayDLQ)
			admin.Get("/queue/stats", queueAdmin.Stats)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-runCtx.Done():
		health.SetReady(false)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
		logger.Info().Msg("server stopped")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
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

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
