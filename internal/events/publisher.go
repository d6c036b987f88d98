// Package events fans security-log entries out to a message queue for
// downstream consumers (SIEM ingestion, alerting). Publishing is optional
// and best-effort: the security log in the database remains the source of
// truth, the queue is a tap.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher emits security events. Publish must never block a state
// transition: implementations return errors for the caller to log, nothing
// more.
type Publisher interface {
	Publish(event string, payload interface{}) error
	Close() error
}

const securityEventQueue = "musa.security-events"

type rabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitPublisher connects to RabbitMQ and declares the security event
// queue as durable.
func NewRabbitPublisher(url string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if _, err := ch.QueueDeclare(securityEventQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", securityEventQueue, err)
	}
	return &rabbitPublisher{conn: conn, channel: ch}, nil
}

func (p *rabbitPublisher) Publish(event string, payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %q: %w", event, err)
	}
	err = p.channel.Publish("", securityEventQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %q: %w", event, err)
	}
	return nil
}

func (p *rabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

type nopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher returns a Publisher that drops events. Used when no AMQP
// URL is configured.
func NewNopPublisher(logger *zap.Logger) Publisher {
	return &nopPublisher{logger: logger}
}

func (p *nopPublisher) Publish(event string, _ interface{}) error {
	p.logger.Debug("event publishing disabled; dropping event", zap.String("event", event))
	return nil
}

func (p *nopPublisher) Close() error { return nil }
