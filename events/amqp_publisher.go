package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher sends persistent JSON messages to a durable queue on the
// default exchange. The connection is reopened once if the broker dropped it.
type AMQPPublisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}

// open must be called with mu held or before the publisher is shared.
func (p *AMQPPublisher) open() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(NewEnvelope(eventType, payload))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         eventType,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publishLocked(ctx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		logging.Ctx(ctx).Warn().Msg("rabbitmq connection closed, reconnecting")
		if err = p.open(); err == nil {
			err = p.publishLocked(ctx, msg)
		}
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EventsPublished.WithLabelValues(eventType, outcome).Inc()
	return err
}

func (p *AMQPPublisher) publishLocked(ctx context.Context, msg amqp.Publishing) error {
	if p.ch == nil || p.ch.IsClosed() {
		return amqp.ErrClosed
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
