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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/vacek-detailing/studio-api/internal/catalog"
	"github.com/vacek-detailing/studio-api/internal/checklist"
	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/config"
	"github.com/vacek-detailing/studio-api/internal/events"
	"github.com/vacek-detailing/studio-api/internal/health"
	"github.com/vacek-detailing/studio-api/internal/invoice"
	"github.com/vacek-detailing/studio-api/internal/lock"
	"github.com/vacek-detailing/studio-api/internal/obs"
	"github.com/vacek-detailing/studio-api/internal/ordering"
	"github.com/vacek-detailing/studio-api/internal/quote"
	"github.com/vacek-detailing/studio-api/internal/ratelimit"
	"github.com/vacek-detailing/studio-api/internal/security"
	"github.com/vacek-detailing/studio-api/internal/store"
	"github.com/vacek-detailing/studio-api/internal/voucher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "studio")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "studio-api",
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

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "studio-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

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

	st := store.New(pool)
	cache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)

	bus := &events.Bus{Notifiers: []events.Notifier{
		cacheInvalidator(cache),
	}}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store: st,
		Cache: cache,
		Bus:   bus,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	quoteService, err := quote.NewService(quote.ServiceConfig{
		Store:     st,
		Catalog:   catalogService,
		Bus:       bus,
		MarkupBps: cfg.CarSizeMarkupBps,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise quote service")
	}
	quoteHandler := quote.NewHandler(quoteService, cfg.QuoteListLimit, cfg.QuoteListMax)

	voucherService, err := voucher.NewService(voucher.ServiceConfig{
		Store:    st,
		Packages: catalogService,
		Bus:      bus,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise voucher service")
	}
	voucherHandler := voucher.NewHandler(voucherService)

	checklistService, err := checklist.NewService(st)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise checklist service")
	}
	checklistHandler := checklist.NewHandler(checklistService)

	orderingService := &ordering.Service{
		Store:   st,
		Lock:    lock.Locker{R: redisClient},
		LockTTL: cfg.OrderLockTTL,
		Bus:     bus,
	}
	orderingHandler := ordering.NewHandler(orderingService)

	renderer, err := invoice.NewRenderer(invoice.Studio{Name: cfg.StudioName, Address: cfg.StudioAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("parse invoice templates")
	}
	invoiceHandler := invoice.NewHandler(renderer, quoteService, catalogService, logger)

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	previewLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "studio:ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("preview"),
			Window: cfg.PreviewRateWindow,
			Max:    cfg.PreviewRateMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
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
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/catalog", func(c chi.Router) {
			c.Get("/services", catalogHandler.Services)
			c.Get("/services/{id}", catalogHandler.Service)
			c.Get("/packages", catalogHandler.Packages)
			c.Get("/pricelist", invoiceHandler.PriceList)
		})

		v.Route("/quotes", func(q chi.Router) {
			q.With(previewLimit.Middleware).Post("/preview", quoteHandler.Preview)
			q.With(idem.Middleware).Post("/", quoteHandler.Save)
			q.Get("/", quoteHandler.List)
			q.Get("/{id}", quoteHandler.Get)
			q.Delete("/{id}", quoteHandler.Delete)
			q.Get("/{id}/invoice", invoiceHandler.Invoice)
		})

		v.Route("/vouchers", func(vr chi.Router) {
			vr.Get("/{code}", voucherHandler.Check)
			vr.With(idem.Middleware).Post("/{code}/redeem", voucherHandler.Redeem)
		})

		v.Route("/checklists", func(c chi.Router) {
			c.Post("/", checklistHandler.Create)
			c.Get("/", checklistHandler.List)
			c.Route("/{id}", func(one chi.Router) {
				one.Get("/", checklistHandler.Get)
				one.Delete("/", checklistHandler.Delete)
				one.Post("/items", checklistHandler.AddItem)
				one.Route("/items/{itemId}", func(item chi.Router) {
					item.Post("/toggle", checklistHandler.ToggleItem)
					item.Post("/move", checklistHandler.MoveItem)
					item.Delete("/", checklistHandler.DeleteItem)
				})
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Post("/services", catalogHandler.CreateService)
			admin.Put("/services/{id}", catalogHandler.UpdateService)
			admin.Delete("/services/{id}", catalogHandler.DeleteService)

			admin.Post("/packages", catalogHandler.CreatePackage)
			admin.Put("/packages/{id}", catalogHandler.UpdatePackage)
			admin.Delete("/packages/{id}", catalogHandler.DeletePackage)

			admin.Get("/ordering/{scope}/{group}", orderingHandler.GetMap)
			admin.Post("/ordering/{scope}/{group}/move", orderingHandler.Move)

			admin.Post("/vouchers", voucherHandler.Create)
			admin.Get("/vouchers", voucherHandler.List)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-runCtx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

// cacheInvalidator drops the cached catalog views whenever a catalog mutation
// or reorder lands.
func cacheInvalidator(cache *catalog.Cache) events.Notifier {
	return events.NotifierFunc(func(ctx context.Context, ev events.Event) error {
		if !strings.HasPrefix(ev.Topic, "catalog.") && ev.Topic != events.TopicOrderMoved {
			return nil
		}
		return cache.Invalidate(ctx)
	})
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envValue(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func envOrDefault(key, fallback string) string {
	if v, ok := envValue(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := envValue(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envFloat(key string, fallback float64) float64 {
	if v, ok := envValue(key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := envValue(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v, ok := envValue(key); ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
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
	for _, profile := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+profile, pprof.Handler(profile))
	}
	return mux
}

// protectPprof requires basic auth on the profiler when credentials are set;
// with no user configured the mux is served as-is.
func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	match := func(got, want string) bool {
		return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !match(u, user) || !match(p, pass) {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
