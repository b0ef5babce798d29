// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/garyellow/faq-linebot-go/internal/bot"
	"github.com/garyellow/faq-linebot-go/internal/buildinfo"
	"github.com/garyellow/faq-linebot-go/internal/catalog"
	"github.com/garyellow/faq-linebot-go/internal/config"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/match"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
	"github.com/garyellow/faq-linebot-go/internal/r2client"
	"github.com/garyellow/faq-linebot-go/internal/ratelimit"
	"github.com/garyellow/faq-linebot-go/internal/sentry"
	"github.com/garyellow/faq-linebot-go/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	data           catalog.Bundle
	matcher        match.Matcher
	userLimiter    ratelimit.Store
	cooldown       ratelimit.Store
	redis          *redis.Client // nil when rate state is in memory
	webhookHandler *webhook.Handler
	server         *http.Server
	ready          atomic.Bool    // false until initialized and again once shutdown starts
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "faq-linebot-go").WithField("version", buildinfo.Release())
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger to enable context value extraction (userID, chatID, requestID)
	// via ContextHandler in package-level slog.*Context() calls.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	data, err := loadData(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	m.SetDataSource("catalog", data.CatalogSource, data.Catalog.Len())
	m.SetDataSource("synonyms", data.SynonymsSource, data.Synonyms.Len())
	log.WithFields(map[string]any{
		"catalog_source":  data.CatalogSource,
		"catalog_entries": data.Catalog.Len(),
		"synonyms_source": data.SynonymsSource,
		"synonym_groups":  data.Synonyms.Len(),
	}).Info("FAQ data loaded")

	matcher, err := match.New(cfg.MatchStrategy, data.Catalog, keyword.NewExpander(data.Synonyms))
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}
	log.WithField("strategy", matcher.Name()).Info("Match engine ready")

	app := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
		data:     data,
		matcher:  matcher,
	}

	if err := app.initRateState(ctx); err != nil {
		return nil, fmt.Errorf("rate state: %w", err)
	}

	client, err := messaging_api.NewMessagingApiAPI(cfg.BotAuthToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	sender := webhook.NewLineSender(webhook.SenderConfig{
		Client:     client,
		Limiter:    ratelimit.NewOutbound(cfg.RateLimit.GlobalRPS),
		SenderName: cfg.SenderName,
		Logger:     log,
		Metrics:    m,
	})

	processor := bot.NewProcessor(bot.ProcessorConfig{
		ChannelID:   cfg.SupportChannelID,
		Matcher:     matcher,
		UserLimiter: app.userLimiter,
		Cooldown:    app.cooldown,
		Sender:      sender,
		Logger:      log,
		Metrics:     m,
	})

	app.webhookHandler, err = webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret:  cfg.BotChannelSecret,
		Processor:      processor,
		Metrics:        m,
		Logger:         log,
		ProcessTimeout: config.WebhookProcessing,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	app.ready.Store(true)
	log.Info("Initialization complete")
	return app, nil
}

// loadData resolves the catalog and synonym table. R2 is consulted only when
// enabled; a client that cannot be built is logged and skipped.
func loadData(ctx context.Context, cfg *config.Config, log *logger.Logger) (catalog.Bundle, error) {
	loader := &catalog.Loader{
		CatalogPath:  cfg.CatalogPath,
		SynonymsPath: cfg.SynonymsPath,
		Logger:       log,
	}

	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    r2client.EndpointForAccount(cfg.R2.AccountID),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			log.WithError(err).Warn("R2 client unavailable, using local FAQ data")
		} else {
			loader.Fetcher = client
			loader.CatalogKey = cfg.R2.CatalogKey
			loader.SynonymsKey = cfg.R2.SynonymsKey
		}
	}

	loadCtx, cancel := context.WithTimeout(ctx, config.DataLoad)
	defer cancel()
	data := loader.Load(loadCtx)
	if data.Catalog == nil || data.Synonyms == nil {
		return data, errors.New("loader returned incomplete data")
	}
	return data, nil
}

// initRateState creates the per-user window and per-channel cooldown stores,
// shared through Redis when configured.
func (a *Application) initRateState(ctx context.Context) error {
	rl := a.cfg.RateLimit
	windowCfg := ratelimit.WindowConfig{
		Max:    rl.MaxMessages,
		Window: rl.Window,
		Hooks: ratelimit.Hooks{
			OnUpdate: func(n int) { a.metrics.SetRateLimiterActiveKeys("user", n) },
		},
	}
	cooldownHooks := ratelimit.Hooks{
		OnUpdate: func(n int) { a.metrics.SetRateLimiterActiveKeys("channel", n) },
	}

	if !rl.UsesRedis() {
		a.userLimiter = ratelimit.NewWindowLimiter(windowCfg)
		a.cooldown = ratelimit.NewCooldown(rl.Cooldown, cooldownHooks)
		a.logger.WithField("max_messages", rl.MaxMessages).
			WithField("window", rl.Window).
			WithField("cooldown", rl.Cooldown).
			Info("In-memory rate state ready")
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, config.RedisDial)
	defer cancel()
	rdb, err := ratelimit.NewRedisClient(dialCtx, rl.RedisAddr, rl.RedisPassword, rl.RedisDB)
	if err != nil {
		return err
	}
	a.redis = rdb
	a.userLimiter = ratelimit.NewRedisWindow(rdb, windowCfg)
	a.cooldown = ratelimit.NewRedisCooldown(rdb, rl.Cooldown, cooldownHooks)
	a.logger.WithField("addr", rl.RedisAddr).
		WithField("db", rl.RedisDB).
		Info("Redis rate state ready")
	return nil
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM), mark not ready
//  2. Cancel context and wait for background jobs
//  3. Stop the HTTP server, then drain queued webhook events
//  4. Close Redis, flush Sentry and the log shipper
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Ensure context is always canceled

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.shutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server failed")
		sentry.CaptureException(err)
	}
	a.ready.Store(false)

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.sweepRateState(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine. The returned channel
// receives the error if the server stops for any reason other than Shutdown.
func (a *Application) startHTTPServer() <-chan error {
	errc := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

func (a *Application) shutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown performs graceful shutdown of HTTP server and resources.
// Call it only after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
		errs = append(errs, fmt.Errorf("webhook handler: %w", err))
	}

	a.logger.Info("Closing resources...")
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "redis").Error("Component close error")
		}
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	if n := a.logger.Dropped(); n > 0 {
		a.logger.WithField("dropped", n).Warn("Remote log records were dropped")
	}
	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("logger: %w", err))
	}
	return errors.Join(errs...)
}
