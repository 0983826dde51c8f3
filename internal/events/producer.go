package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

const (
	// Exchange is the durable topic exchange operation events are published to
	Exchange = "loyalty_events"

	routingKeyPrefix = "loyalty.operation."
	dialTimeout      = 10 * time.Second
)

// RoutingKey returns the routing key of an operation type, e.g. loyalty.operation.award_loyalty_points
func RoutingKey(t models.OperationType) string {
	return routingKeyPrefix + strings.ToLower(string(t))
}

// Producer publishes operation events to RabbitMQ.
type Producer struct {
	logger *logger.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// New connects to RabbitMQ. An empty url, or a broker that cannot be reached,
// yields a Fallback publisher so that the relay keeps serving.
func New(amqpURL string, logger *logger.Logger) models.EventPublisher {
	if strings.TrimSpace(amqpURL) == "" {
		logger.Info("RabbitMQ not configured, operation events are disabled")
		return &Fallback{logger: logger}
	}
	producer, err := NewProducer(amqpURL, logger)
	if err != nil {
		logger.Warnw("RabbitMQ unavailable, operation events are disabled", "error", err)
		return &Fallback{logger: logger}
	}
	return producer
}

func NewProducer(amqpURL string, logger *logger.Logger) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Infow("Connected to RabbitMQ", "exchange", Exchange)
	return &Producer{logger: logger, conn: conn, channel: ch}, nil
}

func declareExchange(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	return nil
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// PublishOperation publishes event to the loyalty_events exchange.
// A failed publish reopens the channel and retries once.
func (p *Producer) PublishOperation(ctx context.Context, event models.OperationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode operation event: %w", err)
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Body:         body,
	}
	key := RoutingKey(event.Type)

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, Exchange, key, false, false, msg)
	if err == nil {
		return nil
	}
	p.logger.Warnw("Publish failed, reopening channel", "routing_key", key, "error", err)

	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("failed to publish operation event: %w", err)
	}
	if exErr := declareExchange(ch); exErr != nil {
		ch.Close()
		return fmt.Errorf("failed to publish operation event: %w", exErr)
	}
	p.channel.Close()
	p.channel = ch

	if err := p.channel.PublishWithContext(ctx, Exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish operation event: %w", err)
	}
	return nil
}

func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Fallback is a no-op publisher used when RabbitMQ is not configured or unreachable.
type Fallback struct {
	logger *logger.Logger
}

func NewFallback(logger *logger.Logger) *Fallback {
	return &Fallback{logger: logger}
}

func (f *Fallback) PublishOperation(_ context.Context, event models.OperationEvent) error {
	f.logger.Debugw("Operation event publish skipped", "id", event.ID, "routing_key", RoutingKey(event.Type))
	return nil
}

func (f *Fallback) Close() {}
