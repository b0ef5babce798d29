package app

import (
	"context"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/faq-linebot-go/internal/buildinfo"
	"github.com/garyellow/faq-linebot-go/internal/config"
	"github.com/garyellow/faq-linebot-go/internal/sentry"
)

const projectURL = "https://github.com/garyellow/faq-linebot-go"

// newRouter builds the HTTP surface: probes, the LINE webhook and metrics.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, projectURL)
	})
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	if a.webhookHandler != nil {
		router.POST("/webhook", a.readinessMiddleware(), a.webhookHandler.Handle)
	}
	router.GET("/metrics",
		metricsAuth(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (a *Application) readinessCheck(c *gin.Context) {
	if !a.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "starting or shutting down",
		})
		return
	}

	rateState := "memory"
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheckTimeout)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.logger.WithError(err).Warn("Readiness check failed: redis unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "redis unavailable",
			})
			return
		}
		rateState = "redis"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"version":    buildinfo.Release(),
		"strategy":   a.matcher.Name(),
		"rate_state": rateState,
		"catalog": gin.H{
			"source":  a.data.CatalogSource,
			"entries": a.data.Catalog.Len(),
		},
		"synonyms": gin.H{
			"source": a.data.SynonymsSource,
			"groups": a.data.Synonyms.Len(),
		},
	})
}
