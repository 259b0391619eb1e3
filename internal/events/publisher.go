// Package events publishes script lifecycle events to an AMQP topic
// exchange so downstream consumers (notifications, analytics) can react
// without polling the database.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "sorriai.lifecycle"

// Event describes a single script lifecycle change.
type Event struct {
	Type       string    `json:"type"`
	ScriptID   string    `json:"script_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers lifecycle events. Implementations must be safe for
// concurrent use and must not block the request path on broker outages.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange. Routing
// keys follow "script.<status>" so consumers can bind selectively.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher connects to the broker and declares the lifecycle
// exchange. The exchange is durable so bindings survive broker restarts.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, exchangeName, "script."+ev.Status, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		slog.Warn("amqp channel close failed", "error", err)
	}
	return p.conn.Close()
}

// NopPublisher discards events. Used when no broker is configured and
// in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error { return nil }
func (NopPublisher) Close() error                                { return nil }
