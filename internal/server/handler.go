package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/feed"
	"github.com/akhatri/ledger-alerts/internal/model"
)

// FeedService is the aggregator surface the HTTP layer consumes.
type FeedService interface {
	Notifications() []model.Notification
	Refresh(ctx context.Context) error
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context)
	Remove(ctx context.Context, id string) error
	Add(ctx context.Context, n model.Notification) model.Notification
}

// Handler serves the notification feed API.
type Handler struct {
	feed FeedService
	log  zerolog.Logger
}

// NewHandler creates a Handler over the given feed service.
func NewHandler(feed FeedService, log zerolog.Logger) *Handler {
	return &Handler{feed: feed, log: log}
}

// ListNotifications returns the current feed and unread count.
func (h *Handler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, NewFeedResponse(h.feed.Notifications()))
}

// AddNotification creates a manual notification at the head of the feed.
func (h *Handler) AddNotification(c *gin.Context) {
	var req AddNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n := h.feed.Add(c.Request.Context(), req.ToModel())
	c.JSON(http.StatusCreated, FromModel(n))
}

// MarkRead marks a single notification as read.
func (h *Handler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.feed.MarkAsRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("marking notification read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead marks every notification in the feed as read.
func (h *Handler) MarkAllRead(c *gin.Context) {
	h.feed.MarkAllAsRead(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// RemoveNotification deletes a notification from the feed. The ID stays
// marked read so the entry cannot resurface unread on the next cycle.
func (h *Handler) RemoveNotification(c *gin.Context) {
	id := c.Param("id")
	if err := h.feed.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, feed.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("removing notification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification removed"})
}

// RefreshFeed runs a generation cycle on demand. While a cycle is
// already in flight the request is rejected with 409.
func (h *Handler) RefreshFeed(c *gin.Context) {
	if err := h.feed.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, feed.ErrRefreshInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "refresh already in progress"})
			return
		}
		h.log.Error().Err(err).Msg("manual refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, NewFeedResponse(h.feed.Notifications()))
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
