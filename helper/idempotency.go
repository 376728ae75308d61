package helper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const webhookEventTTL = 48 * time.Hour

// EventClaimer records webhook event ids so a redelivered event is processed
// once. Without redis every event is processed; fulfillment is idempotent
// anyway, the claim only saves the duplicate work and emails.
type EventClaimer struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewEventClaimer(rdb *redis.Client) *EventClaimer {
	return &EventClaimer{rdb: rdb, ttl: webhookEventTTL}
}

func eventKey(id string) string {
	return "stripe:event:" + id
}

// Claim returns false when the event was already claimed.
func (c *EventClaimer) Claim(ctx context.Context, eventID string) (bool, error) {
	if c == nil || c.rdb == nil {
		return true, nil
	}
	return c.rdb.SetNX(ctx, eventKey(eventID), "1", c.ttl).Result()
}

// Release drops a claim so the provider's next delivery is processed again.
func (c *EventClaimer) Release(ctx context.Context, eventID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, eventKey(eventID)).Err()
}
