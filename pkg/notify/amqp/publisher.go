// Package amqp publishes live feed events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/goliatone/go-bakeryops/components/liveops"
)

// DefaultExchange receives every feed event.
const DefaultExchange = "bakeryops.live"

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards liveops events. It satisfies liveops.EventHook.
type Publisher struct {
	channel  Channel
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger
	clock    func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for publish failures.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithExchange overrides DefaultExchange.
func WithExchange(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.exchange = name
		}
	}
}

// Dial connects to url and declares the exchange.
func Dial(url string, opts ...Option) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: channel: %w", err)
	}
	p, err := New(ch, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// New declares the topic exchange on ch and returns a publisher using it.
func New(ch Channel, opts ...Option) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("amqp: channel is required")
	}
	p := &Publisher{
		channel:  ch,
		exchange: DefaultExchange,
		logger:   zap.NewNop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("amqp: declare %s: %w", p.exchange, err)
	}
	return p, nil
}

// Publish sends event as JSON under its routing key.
func (p *Publisher) Publish(ctx context.Context, event liveops.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("amqp: encode %s: %w", event.Kind, err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(event)
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   p.clock().UTC(),
		Type:        string(event.Kind),
		Body:        body,
	})
	if err != nil {
		p.logger.Warn("publish live event failed",
			zap.String("exchange", p.exchange),
			zap.String("routing_key", key),
			zap.Error(err),
		)
		return fmt.Errorf("amqp: publish %s: %w", key, err)
	}
	return nil
}

// RoutingKey is liveops.<kind>.<platform|severity>, lower-cased:
// `liveops.order.talabat`, `liveops.alert.manual.error`.
func RoutingKey(event liveops.Event) string {
	parts := []string{"liveops", string(event.Kind)}
	switch {
	case event.Order != nil:
		parts = append(parts, string(event.Order.Platform))
	case event.Alert != nil:
		parts = append(parts, string(event.Alert.Severity))
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// Close releases the channel and, when Dial opened it, the connection.
func (p *Publisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}

var _ liveops.EventHook = (*Publisher)(nil)
