package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/http/handler"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/http/middleware"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/service"
)

type RouterConfig struct {
	AdminAPIKey     string
	TraceHeaderName string
}

// HealthCheck probes one backing dependency for the readiness endpoint.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Ingest  service.IngestService
	Pushers *push.Registry
	Metrics *metrics.Metrics
	Checks  map[string]HealthCheck
}

func SetupRoutes(router *gin.Engine, deps Dependencies, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readiness(deps.Checks))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	webhookHandler := handler.NewWebhookHandler(deps.Ingest, cfg.TraceHeaderName)
	WebhookRouter(router.Group("/webhook"), webhookHandler)

	v1 := router.Group("/api/v1")
	{
		discoveryHandler := handler.NewDiscoveryHandler(deps.Pushers)
		DiscoveryRouter(v1.Group("/platforms"), discoveryHandler, cfg.AdminAPIKey)
	}
}

func WebhookRouter(rg *gin.RouterGroup, h *handler.WebhookHandler) {
	rg.POST("/:provider", h.Handle)
}

// DiscoveryRouter mounts the configuration-time lookups behind the admin key.
func DiscoveryRouter(rg *gin.RouterGroup, h *handler.DiscoveryHandler, adminKey string) {
	rg.Use(middleware.RequireAdminKey(adminKey))
	{
		rg.GET("", h.ListPlatforms)
		rg.GET("/:platform/guilds", h.ListGuilds)
		rg.GET("/:platform/channels", h.ListChannels)
	}
}

func readiness(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"checks": results})
	}
}
