// Package publisher delivers lifecycle events to a RabbitMQ topic exchange.
// The event type is the routing key, so consumers bind to e.g. "reservation.*".
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/ports/out/events"
)

const (
	DefaultExchange = "wedding.events"

	DefaultDialTimeout   = 2 * time.Second
	DefaultRedialBackoff = 10 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a failed dial is backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher keeps one connection and channel open and redials lazily after a failure.
// After a failed dial, publishes fail fast until RedialBackoff has elapsed.
type Publisher struct {
	url      string
	exchange string
	log      *zap.Logger

	DialTimeout   time.Duration
	RedialBackoff time.Duration

	dial func(url string, timeout time.Duration) (*amqp.Connection, error)
	now  func() time.Time

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	nextDialAt time.Time
}

func New(url, exchange string, log *zap.Logger) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		url:           url,
		exchange:      exchange,
		log:           log,
		DialTimeout:   DefaultDialTimeout,
		RedialBackoff: DefaultRedialBackoff,
		dial: func(url string, timeout time.Duration) (*amqp.Connection, error) {
			return amqp.DialConfig(url, amqp.Config{
				Heartbeat: 10 * time.Second,
				Locale:    "en_US",
				Dial:      amqp.DefaultDial(timeout),
			})
		},
		now: time.Now,
	}
}

type envelope struct {
	Type       events.Type `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       any         `json:"data,omitempty"`
}

func encode(e events.Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.Type, OccurredAt: e.OccurredAt.UTC(), Data: e.Data})
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := encode(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		if !errors.Is(err, ErrBrokerUnavailable) {
			p.log.Warn("rabbitmq: connect failed", zap.Error(err))
		}
		return err
	}
	err = ch.PublishWithContext(ctx,
		p.exchange,
		string(e.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt.UTC(),
			Type:         string(e.Type),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("type", string(e.Type)), zap.Error(err))
		p.resetLocked()
		return err
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return err
}

func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	now := p.now()
	if now.Before(p.nextDialAt) {
		return nil, ErrBrokerUnavailable
	}
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := p.dial(p.url, timeout)
	if err != nil {
		p.nextDialAt = now.Add(p.RedialBackoff)
		return nil, err
	}
	p.nextDialAt = time.Time{}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
