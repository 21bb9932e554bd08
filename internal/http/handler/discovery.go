package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
)

// DiscoveryHandler lists guilds and channels so targets can be configured.
type DiscoveryHandler struct {
	pushers *push.Registry
}

func NewDiscoveryHandler(pushers *push.Registry) *DiscoveryHandler {
	return &DiscoveryHandler{pushers: pushers}
}

func (h *DiscoveryHandler) ListPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": h.pushers.Platforms()})
}

func (h *DiscoveryHandler) ListGuilds(c *gin.Context) {
	d, ok := h.discoverer(c)
	if !ok {
		return
	}

	guilds, err := d.ListGuilds(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing guilds failed", "error", err, "platform", c.Param("platform"))
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"guilds": guilds})
}

func (h *DiscoveryHandler) ListChannels(c *gin.Context) {
	d, ok := h.discoverer(c)
	if !ok {
		return
	}

	channels, err := d.ListChannels(c.Request.Context(), c.Query("scope_id"))
	if err != nil {
		if errors.Is(err, push.ErrScopeRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scope_id is required"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "listing channels failed", "error", err, "platform", c.Param("platform"))
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform request failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *DiscoveryHandler) discoverer(c *gin.Context) (push.Discoverer, bool) {
	d, err := h.pushers.Discoverer(model.Platform(c.Param("platform")))
	if err != nil {
		switch {
		case errors.Is(err, push.ErrPlatformNotRegistered):
			c.JSON(http.StatusNotFound, gin.H{"error": "platform not configured"})
		default:
			c.JSON(http.StatusNotImplemented, gin.H{"error": "discovery not supported"})
		}
		return nil, false
	}
	return d, true
}
