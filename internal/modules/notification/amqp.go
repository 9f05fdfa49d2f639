package notification

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const fanoutExchange = "notifications_fanout"

// Publisher fans notification events out to the message broker so
// external consumers (mobile push, email workers) can pick them up.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher declares the fanout exchange and returns a publisher
// bound to it.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(fanoutExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

// Publish sends one event to the exchange. Delivery is best-effort;
// the persisted notification rows are the source of truth.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, fanoutExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Close releases the underlying channel.
func (p *Publisher) Close() error { return p.ch.Close() }
