package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	"github.com/Volatile-Viv/Try-Karo/internal/authz"
	"github.com/Volatile-Viv/Try-Karo/internal/config"
	handler "github.com/Volatile-Viv/Try-Karo/internal/handler/http"
	"github.com/Volatile-Viv/Try-Karo/internal/llm"
	"github.com/Volatile-Viv/Try-Karo/internal/llm/groq"
	"github.com/Volatile-Viv/Try-Karo/internal/llm/offline"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/internal/storage"
	"github.com/Volatile-Viv/Try-Karo/internal/storage/cloudinary"
	storagemem "github.com/Volatile-Viv/Try-Karo/internal/storage/memory"
	"github.com/Volatile-Viv/Try-Karo/pkg/health"
	"github.com/Volatile-Viv/Try-Karo/pkg/httpclient"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
	"github.com/Volatile-Viv/Try-Karo/pkg/tracing"
)

const serviceName = "try-karo"

// App wires together all dependencies and runs the API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *Store
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopLimiter    context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := OpenStore(ctx, cfg, reg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		tracerShutdown: tracerShutdown,
	}

	router, err := a.buildRouter(reg)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) buildRouter(reg *prometheus.Registry) (http.Handler, error) {
	cfg, logger := a.cfg, a.logger

	breakerMetrics, err := httpclient.NewBreakerMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(reg, serviceName)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	images, imagesBreaker := newImageStorage(cfg, breakerMetrics, logger)
	provider, chatBreaker := newChatProvider(cfg, breakerMetrics, logger)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("load authorization policy: %w", err)
	}

	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenExpiry())
	ratings := service.NewRatingAggregator(a.store.Products, a.store.Reviews, logger)
	svc := handler.Services{
		Users:    service.NewUserService(a.store.Users, tokens, logger),
		Products: service.NewProductService(a.store.Products, a.store.Reviews, a.store.Users, logger),
		Reviews:  service.NewReviewService(a.store.Reviews, a.store.Products, a.store.Users, ratings, logger),
		Insights: service.NewInsightsService(a.store.Products, a.store.Reviews, a.store.Users, logger),
		Uploads:  service.NewUploadService(images, logger),
		Chat:     service.NewChatService(provider, logger),
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(a.store.Driver, a.store.Ping)
	if imagesBreaker != nil {
		healthHandler.RegisterNonCritical("cloudinary", breakerCheck(imagesBreaker))
	}
	if chatBreaker != nil {
		healthHandler.RegisterNonCritical("groq", breakerCheck(chatBreaker))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = middleware.ParseOrigins(cfg.ClientURL)
	corsCfg.Environment = cfg.Environment

	limiterCtx, stop := context.WithCancel(context.Background())
	a.stopLimiter = stop

	return handler.NewRouter(limiterCtx, svc, enforcer, healthHandler, handler.RouterConfig{
		ServiceName:    serviceName,
		CORS:           corsCfg,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		ChatRateLimit:  cfg.ChatRateLimit,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, logger), nil
}

// newImageStorage returns the configured object store and, for remote
// stores, the breaker guarding it.
func newImageStorage(cfg *config.Config, metrics *httpclient.BreakerMetrics, logger *slog.Logger) (storage.Storage, *httpclient.CircuitBreakerClient) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory image storage")
		return storagemem.New(fmt.Sprintf("http://localhost:%d/images", cfg.HTTPPort)), nil
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("cloudinary"),
		metrics,
		logger,
	)
	return cloudinary.New(cloudinary.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	}, client), client
}

func newChatProvider(cfg *config.Config, metrics *httpclient.BreakerMetrics, logger *slog.Logger) (llm.Provider, *httpclient.CircuitBreakerClient) {
	if !cfg.ChatEnabled() {
		logger.Warn("GROQ_API_KEY not set; chat answers with a canned response")
		return offline.New(), nil
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("groq"),
		metrics,
		logger,
	)
	return groq.New(groq.Config{
		APIKey:  cfg.GroqAPIKey,
		Model:   cfg.GroqModel,
		BaseURL: cfg.GroqBaseURL,
	}, client), client
}

// breakerCheck degrades readiness while the breaker is open.
func breakerCheck(b *httpclient.CircuitBreakerClient) health.Checker {
	return func(context.Context) error {
		if b.State() == gobreaker.StateOpen {
			return errors.New("circuit breaker open")
		}
		return nil
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("environment", a.cfg.Environment),
			slog.String("store", a.store.Driver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown stops the HTTP server, then flushes spans, then closes the store.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	if a.httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpCancel()
		if err := a.httpServer.Shutdown(httpCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.stopLimiter != nil {
		a.stopLimiter()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer storeCancel()
	if err := a.store.Close(storeCtx); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
