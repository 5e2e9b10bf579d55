package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	"moneyflow/internal/core"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var (
	errCircuitOpen      = errors.New("circuit breaker is open")
	errMalformedMessage = errors.New("malformed change message")
)

// Client publishes and consumes change messages on a direct exchange.
// A Client with an empty queue name only publishes.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
	reconnecting int32
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if c.queueName == "" {
		return nil
	}

	_, err = ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		c.queueName,      // queue name
		ChangeRoutingKey, // routing key
		c.exchangeName,   // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Notify implements the finance store notifier by publishing change.
func (c *Client) Notify(ctx context.Context, change core.Change) error {
	return c.PublishChange(ctx, NewChangeMessage(change))
}

// PublishChange publishes a persistent change message.
func (c *Client) PublishChange(ctx context.Context, msg *ChangeMessage) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish change: %w", errCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		c.recordFailure()
		return fmt.Errorf("publish message: channel not open")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName,   // exchange
		ChangeRoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go c.reconnect()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	slog.InfoContext(ctx, "Published change message",
		"entity", msg.Entity,
		"op", msg.Op,
		"id", msg.ID,
		"exchange", c.exchangeName)

	return nil
}

// ConsumeChanges delivers change messages to handler until ctx is done.
// Handler errors requeue the message; undecodable bodies are dropped. Lost
// connections are re-established with exponential backoff.
func (c *Client) ConsumeChanges(ctx context.Context, handler func(context.Context, *ChangeMessage) error) error {
	if c.queueName == "" {
		return fmt.Errorf("consume changes: no queue configured")
	}

	b := newReconnectBackOff()
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := b.NextBackOff()
		slog.WarnContext(ctx, "AMQP consumer lost connection, reconnecting",
			"error", err,
			"attempt", attempt+1,
			"wait", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if cerr := c.connect(); cerr != nil {
			slog.ErrorContext(ctx, "AMQP reconnect failed", "error", cerr)
			attempt++
			continue
		}
		attempt = 0
		b.Reset()
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *ChangeMessage) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("channel closed")
	}

	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming change messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ChangeMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"entity", msg.Entity,
					"id", msg.ID)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			slog.DebugContext(ctx, "Processed change message",
				"entity", msg.Entity,
				"op", msg.Op,
				"id", msg.ID)
		}
	}
}

func (c *Client) reconnect() {
	if !atomic.CompareAndSwapInt32(&c.reconnecting, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&c.reconnecting, 0)
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return c.connect()
	}, backoff.WithMaxRetries(newReconnectBackOff(), maxFailures))
	if err != nil {
		slog.Error("AMQP publisher could not reconnect", "attempts", attempts, "error", err)
		return
	}
	slog.Info("AMQP publisher reconnected", "attempt", attempts)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// newReconnectBackOff doubles from one second, caps at maxBackoff and
// never gives up on its own.
func newReconnectBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed", "channel not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
