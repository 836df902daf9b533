package server

import (
	"time"

	"github.com/akhatri/ledger-alerts/internal/model"
)

// AddNotificationRequest is the body for creating a manual notification.
type AddNotificationRequest struct {
	Type       string         `json:"type" binding:"required,oneof=success warning info error"`
	Title      string         `json:"title" binding:"required"`
	Message    string         `json:"message" binding:"required"`
	ActionURL  string         `json:"action_url" binding:"omitempty,uri"`
	ActionText string         `json:"action_text"`
	Metadata   map[string]any `json:"metadata"`
}

// ToModel converts the request into a notification record. The
// aggregator assigns the ID and timestamp on add.
func (r AddNotificationRequest) ToModel() model.Notification {
	return model.Notification{
		Type:       model.NotificationType(r.Type),
		Title:      r.Title,
		Message:    r.Message,
		ActionURL:  r.ActionURL,
		ActionText: r.ActionText,
		Metadata:   r.Metadata,
	}
}

// NotificationResponse is a feed entry as served to the SPA, with the
// presentation style resolved server-side.
type NotificationResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Icon       string         `json:"icon"`
	Color      string         `json:"color"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
	Read       bool           `json:"read"`
	ActionURL  string         `json:"action_url,omitempty"`
	ActionText string         `json:"action_text,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// FeedResponse is the payload for feed listings and websocket pushes.
type FeedResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

// FromModel converts a notification into its API representation.
func FromModel(n model.Notification) NotificationResponse {
	style := model.StyleFor(n.Type)
	return NotificationResponse{
		ID:         n.ID,
		Type:       string(n.Type),
		Icon:       style.Icon,
		Color:      style.Color,
		Title:      n.Title,
		Message:    n.Message,
		Timestamp:  n.Timestamp,
		Read:       n.Read,
		ActionURL:  n.ActionURL,
		ActionText: n.ActionText,
		Metadata:   n.Metadata,
	}
}

// NewFeedResponse builds the feed payload from a list of notifications.
func NewFeedResponse(items []model.Notification) FeedResponse {
	resp := FeedResponse{
		Notifications: make([]NotificationResponse, 0, len(items)),
	}
	for _, n := range items {
		if !n.Read {
			resp.UnreadCount++
		}
		resp.Notifications = append(resp.Notifications, FromModel(n))
	}
	return resp
}
