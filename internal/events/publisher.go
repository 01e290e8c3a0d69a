package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gatepass/pkg/logger"
)

// Activity event types published for live dashboards. Delivery is fire and
// forget over Redis Pub/Sub; the database stays the source of truth.
const (
	EventTypeGuestCreated   = "guest.created"
	EventTypeGuestCheckedIn = "guest.checked_in"
	EventTypeGuestDeleted   = "guest.deleted"
	EventTypeBadgePrinted   = "badge.printed"
)

// ChannelPrefixEvent scopes a pub/sub channel to one event's dashboard.
const ChannelPrefixEvent = "channel:event:"

type Envelope struct {
	EventType  string          `json:"event_type"`
	EventID    string          `json:"event_id"`
	GuestID    string          `json:"guest_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Publisher pushes activity envelopes for one event's subscribers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, eventID, guestID uuid.UUID, payload any)
}

// RedisPublisher implements Publisher over Redis Pub/Sub.
type RedisPublisher struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

// Publish is best effort: dashboard updates are lossy by design and a
// publish failure must never fail the triggering mutation.
func (p *RedisPublisher) Publish(ctx context.Context, eventType string, eventID, guestID uuid.UUID, payload any) {
	env := Envelope{
		EventType:  eventType,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
	}
	if guestID != uuid.Nil {
		env.GuestID = guestID.String()
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			p.log.Warnf("activity payload marshal failed for %s: %v", eventType, err)
		} else {
			env.Payload = raw
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.log.Warnf("activity envelope marshal failed for %s: %v", eventType, err)
		return
	}
	channel := fmt.Sprintf("%s%s", ChannelPrefixEvent, eventID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.log.Warnf("activity publish to %s failed: %v", channel, err)
	}
}

// NopPublisher drops every event. Used when Redis is not configured and in
// tests that do not assert on activity.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, uuid.UUID, uuid.UUID, any) {}
