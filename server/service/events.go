package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	commonlog "inspection_server/server/common/log"
)

const (
	// EventsExchange is the AMQP topic exchange domain events go to.
	EventsExchange = "inspection.events"
	// UpdatesChannel is the Redis channel feeding the websocket stream.
	UpdatesChannel = "inspection.updates"
)

type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Events publishes domain events to AMQP and Redis. Either sink may be nil;
// publishing is best-effort and never fails the request that triggered it.
type Events struct {
	channel *amqp.Channel
	rdb     *redis.Client
}

func NewEvents(channel *amqp.Channel, rdb *redis.Client) *Events {
	return &Events{channel: channel, rdb: rdb}
}

func (e *Events) Emit(ctx context.Context, eventType string, payload any) {
	if e == nil {
		return
	}
	body, err := json.Marshal(Event{Type: eventType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		commonlog.Errorf("marshal event %s: %v", eventType, err)
		return
	}
	if e.channel != nil {
		err := e.channel.PublishWithContext(ctx, EventsExchange, eventType, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		})
		if err != nil {
			commonlog.Warnf("publish event %s to amqp: %v", eventType, err)
		}
	}
	if e.rdb != nil {
		if err := e.rdb.Publish(ctx, UpdatesChannel, body).Err(); err != nil {
			commonlog.Warnf("publish event %s to redis: %v", eventType, err)
		}
	}
}
