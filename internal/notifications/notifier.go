// Package notifications fans moderation events out to connected admins.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// ModerationChannel is the redis channel every node publishes to.
const ModerationChannel = "moderation:events"

// EventType names a moderation transition.
type EventType string

const (
	EventReportCreated  EventType = "report_created"
	EventReportApproved EventType = "report_approved"
	EventReportRejected EventType = "report_rejected"
	EventUserLocked     EventType = "user_locked"
	EventUserUnlocked   EventType = "user_unlocked"
	EventUserDeleted    EventType = "user_deleted"
)

// ModerationEvent is the payload sent to the admin feed.
type ModerationEvent struct {
	Type     EventType `json:"type"`
	ReportID uint      `json:"reportId,omitempty"`
	PhotoID  uint      `json:"photoId,omitempty"`
	UserID   uint      `json:"userId,omitempty"`
	ActorID  uint      `json:"actorId"`
	Status   string    `json:"status,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier publishes moderation events into redis. A Notifier without a
// client drops everything.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishModeration sends ev to every subscribed node.
func (n *Notifier) PublishModeration(ctx context.Context, ev ModerationEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal moderation event: %w", err)
	}
	return n.rdb.Publish(ctx, ModerationChannel, payload).Err()
}

// Subscribe calls onMessage with each raw payload published on the
// moderation channel until ctx is cancelled. It returns once the
// subscription is confirmed by the server.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(payload []byte)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ModerationChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in moderation subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage([]byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
