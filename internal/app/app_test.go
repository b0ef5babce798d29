package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/faq-linebot-go/internal/catalog"
	"github.com/garyellow/faq-linebot-go/internal/config"
	"github.com/garyellow/faq-linebot-go/internal/keyword"
	"github.com/garyellow/faq-linebot-go/internal/logger"
	"github.com/garyellow/faq-linebot-go/internal/match"
	"github.com/garyellow/faq-linebot-go/internal/metrics"
	"github.com/garyellow/faq-linebot-go/internal/ratelimit"
	"github.com/garyellow/faq-linebot-go/internal/synonym"
)

func testConfig() *config.Config {
	return &config.Config{
		BotAuthToken:     "test-token",
		BotChannelSecret: "test-secret",
		SupportChannelID: "C1234567890",
		Port:             "0",
		LogLevel:         "error",
		ShutdownTimeout:  time.Second,
		MatchStrategy:    match.StrategyKeyword,
		RateLimit: config.RateLimitConfig{
			MaxMessages:   10,
			Window:        time.Minute,
			Cooldown:      3 * time.Second,
			SweepInterval: time.Minute,
			GlobalRPS:     80,
		},
		MetricsUsername: "prometheus",
	}
}

// setupTestApp creates an Application backed by the embedded FAQ data and
// in-memory rate state, without a webhook handler.
func setupTestApp(t *testing.T) *Application {
	t.Helper()

	cat := catalog.Default()
	syn := synonym.Default()
	matcher, err := match.New(match.StrategyKeyword, cat, keyword.NewExpander(syn))
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	app := &Application{
		cfg:      testConfig(),
		logger:   logger.Discard(),
		metrics:  metrics.New(registry),
		registry: registry,
		data: catalog.Bundle{
			Catalog:        cat,
			Synonyms:       syn,
			CatalogSource:  catalog.SourceEmbedded,
			SynonymsSource: catalog.SourceEmbedded,
		},
		matcher:     matcher,
		userLimiter: ratelimit.NewWindowLimiter(ratelimit.WindowConfig{Max: 10, Window: time.Minute}),
		cooldown:    ratelimit.NewCooldown(3*time.Second, ratelimit.Hooks{}),
	}
	app.ready.Store(true)
	return app
}

func serve(t *testing.T, h http.Handler, method, path string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 && method != http.MethodHead {
		_ = json.Unmarshal(w.Body.Bytes(), &body)
	}
	return w, body
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.ready.Store(false)

	w, body := serve(t, app.newRouter(), http.MethodGet, "/livez", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestReadinessCheckHealthy(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	w, body := serve(t, app.newRouter(), http.MethodGet, "/readyz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "keyword", body["strategy"])
	assert.Equal(t, "memory", body["rate_state"])

	cat, ok := body["catalog"].(map[string]any)
	require.True(t, ok, "catalog section missing")
	assert.Equal(t, "embedded", cat["source"])
	assert.EqualValues(t, app.data.Catalog.Len(), cat["entries"])

	syn, ok := body["synonyms"].(map[string]any)
	require.True(t, ok, "synonyms section missing")
	assert.EqualValues(t, app.data.Synonyms.Len(), syn["groups"])
}

func TestReadinessCheckHead(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	w, _ := serve(t, app.newRouter(), http.MethodHead, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheckNotReady(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.ready.Store(false)

	w, body := serve(t, app.newRouter(), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", body["status"])
}

func TestReadinessCheckRedisUnavailable(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.redis = redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = app.redis.Close() })

	w, body := serve(t, app.newRouter(), http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "redis unavailable", body["reason"])
}

func TestWebhookRejectedWhileNotReady(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.ready.Store(false)

	router := gin.New()
	router.POST("/webhook", app.readinessMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w, _ := serve(t, router, http.MethodPost, "/webhook", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))

	app.ready.Store(true)
	w, _ = serve(t, router, http.MethodPost, "/webhook", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRootRedirects(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	w, _ := serve(t, app.newRouter(), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, projectURL, w.Header().Get("Location"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.metrics.RecordMessage("answered")

	w, _ := serve(t, app.newRouter(), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "answered")
}

func TestMetricsEndpointRequiresAuth(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.cfg.MetricsPassword = "secret"

	w, _ := serve(t, app.newRouter(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = serve(t, app.newRouter(), http.MethodGet, "/metrics", http.Header{
		"Authorization": {basicAuth("prometheus", "secret")},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	router := app.newRouter()

	w, _ := serve(t, router, http.MethodGet, "/livez", http.Header{"X-Request-Id": {"req-123"}})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))

	w, _ = serve(t, router, http.MethodGet, "/livez", http.Header{"X-Correlation-Id": {"corr-9"}})
	assert.Equal(t, "corr-9", w.Header().Get("X-Request-Id"))

	w, _ = serve(t, router, http.MethodGet, "/livez", nil)
	assert.Len(t, w.Header().Get("X-Request-Id"), 36, "generated id should be a UUID")
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)

	w, _ := serve(t, app.newRouter(), http.MethodGet, "/livez", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRunSweep(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	ctx := context.Background()
	start := time.Now()

	ok, err := app.userLimiter.CheckAndRecord(ctx, "U1", start)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = app.cooldown.CheckAndRecord(ctx, "C1", start)
	require.NoError(t, err)
	require.True(t, ok)

	app.runSweep(ctx, start.Add(time.Second))
	assert.Equal(t, 1, app.userLimiter.Len())
	assert.Equal(t, 1, app.cooldown.Len())

	app.runSweep(ctx, start.Add(2*time.Minute))
	assert.Equal(t, 0, app.userLimiter.Len())
	assert.Equal(t, 0, app.cooldown.Len())
}

func TestSweepRateStateStopsOnCancel(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t)
	app.cfg.RateLimit.SweepInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.sweepRateState(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep job did not stop after cancel")
	}
}

func TestLoadDataDefaultsToEmbedded(t *testing.T) {
	t.Parallel()

	data, err := loadData(context.Background(), testConfig(), logger.Discard())

	require.NoError(t, err)
	assert.Equal(t, catalog.SourceEmbedded, data.CatalogSource)
	assert.Equal(t, catalog.SourceEmbedded, data.SynonymsSource)
	assert.Positive(t, data.Catalog.Len())
}

func TestInitialize(t *testing.T) {
	app, err := Initialize(context.Background(), testConfig())
	require.NoError(t, err)

	assert.True(t, app.ready.Load())
	assert.Nil(t, app.redis)
	assert.Equal(t, "keyword", app.matcher.Name())

	w, body := serve(t, app.server.Handler, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	w, _ = serve(t, app.server.Handler, http.MethodPost, "/webhook", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unsigned webhook must be rejected")

	require.NoError(t, app.webhookHandler.Shutdown(context.Background()))
}

func TestInitializeRejectsUnknownStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.MatchStrategy = "semantic"

	_, err := Initialize(context.Background(), cfg)
	assert.Error(t, err)
}
