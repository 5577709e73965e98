package redis

import (
	"context"
	"encoding/json"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// EventPublisher fans domain events out over redis pub/sub. Subscribers
// (push gateways, analytics) consume the channel; the engine never blocks on
// their delivery.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, eventsChannel, payload).Err()
}

// NotifierAdapter exposes the event publisher as a NotificationService:
// user-directed notifications become addressed events on a per-user channel.
// Delivery transport (email, push, websocket) is a downstream concern.
type NotifierAdapter struct {
	client *redis.Client
}

func NewNotifierAdapter(client *redis.Client) *NotifierAdapter {
	return &NotifierAdapter{client: client}
}

func (n *NotifierAdapter) Notify(ctx context.Context, event domain.AuctionEventType, recipientID string, payload map[string]interface{}) error {
	msg := map[string]interface{}{
		"event":     string(event),
		"recipient": recipientID,
		"payload":   payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, "user_notifications:"+recipientID, data).Err()
}
