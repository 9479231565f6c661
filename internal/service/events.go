package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"postboard/internal/featureflags"
	"postboard/internal/models"
	"postboard/internal/observability"
)

// Realtime event types.
const (
	EventNewFollower = "new_follower"
	EventNewPost     = "new_post"
)

// Publisher delivers a serialized event to one user's realtime channel.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// Events publishes realtime events when the realtime_notifications flag is
// on for the recipient. A nil *Events or nil publisher drops every event.
type Events struct {
	pub   Publisher
	flags *featureflags.Manager
}

// NewEvents returns an Events bound to pub and gated by flags.
func NewEvents(pub Publisher, flags *featureflags.Manager) *Events {
	return &Events{pub: pub, flags: flags}
}

func (e *Events) publish(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	if e == nil || e.pub == nil || !e.flags.Enabled(featureflags.RealtimeNotifications, userID) {
		return
	}
	body, err := json.Marshal(map[string]any{"type": eventType, "payload": payload})
	if err != nil {
		slog.WarnContext(ctx, "failed to marshal realtime event", "type", eventType, "err", err)
		return
	}
	if err := e.pub.PublishUser(ctx, userID, string(body)); err != nil {
		slog.WarnContext(ctx, "failed to publish realtime event", "type", eventType, "user_id", userID, "err", err)
		return
	}
	observability.NotificationsPublished.WithLabelValues(eventType).Inc()
}

func userSummary(u *models.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"name":     u.FullName(),
	}
}
