package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

var (
	errClosed         = errors.New("rabbitmq client closed")
	errConfirmTimeout = errors.New("publish confirmation timed out")
	errNacked         = errors.New("broker rejected publish")
	errConfirmsClosed = errors.New("confirm channel closed before confirmation")
)

// Client is a RabbitMQ broker client. It owns one connection shared by a
// confirm-mode publishing channel and one channel per consumer.
type Client struct {
	url            string
	prefetch       int
	consumerTag    string
	queues         []string
	retryInterval  time.Duration
	consumeBackoff time.Duration
	publishTimeout time.Duration
	logg           *logger.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	pubCh    *amqp.Channel
	confirms chan amqp.Confirmation
	closed   bool
}

// New connects to RabbitMQ, retrying at the configured interval until the
// broker answers or ctx is cancelled, and declares every pipeline queue.
func New(ctx context.Context, rabbit config.RabbitMQConfig, broker config.BrokerConfig, logg *logger.Logger) (*Client, error) {
	if rabbit.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}
	c := &Client{
		url:            rabbit.URL,
		prefetch:       rabbit.Prefetch,
		consumerTag:    rabbit.ConsumerTag,
		queues:         broker.Queues(),
		retryInterval:  broker.ConnectRetryInterval,
		consumeBackoff: broker.ConsumerErrorBackoff,
		publishTimeout: broker.PublishTimeout,
		logg:           logg,
	}
	if c.retryInterval <= 0 {
		c.retryInterval = 3 * time.Second
	}
	if c.consumeBackoff <= 0 {
		c.consumeBackoff = time.Second
	}
	if c.publishTimeout <= 0 {
		c.publishTimeout = 5 * time.Second
	}
	if c.prefetch <= 0 {
		c.prefetch = 1
	}

	for attempt := 1; ; attempt++ {
		err := c.connect()
		if err == nil {
			break
		}
		c.logError(ctx, "rabbitmq not ready, retrying", err, map[string]any{
			"attempt":  attempt,
			"retry_in": c.retryInterval.String(),
		})
		if !sleep(ctx, c.retryInterval) {
			return nil, fmt.Errorf("connecting to rabbitmq: %w", ctx.Err())
		}
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "queues", c.queues), "rabbitmq connection established")
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.connectionLocked()
	return err
}

// connectionLocked dials when there is no live connection and declares the
// queues on the fresh connection.
func (c *Client) connectionLocked() (*amqp.Connection, error) {
	if c.closed {
		return nil, errClosed
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}
	c.pubCh = nil
	c.confirms = nil

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	for _, queue := range c.queues {
		if err := declareQueue(ch, queue); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	c.conn = conn
	return conn, nil
}

func declareQueue(ch *amqp.Channel, queue string) error {
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

// Ping fails when the connection is gone.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if c.pubCh != nil {
		err = multierr.Append(err, ignoreClosed(c.pubCh.Close()))
	}
	if c.conn != nil {
		err = multierr.Append(err, ignoreClosed(c.conn.Close()))
	}
	c.pubCh = nil
	c.conn = nil
	return err
}

func ignoreClosed(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) logError(ctx context.Context, msg string, err error, fields map[string]any) {
	if c.logg == nil {
		return
	}
	c.logg.Error(c.logg.WithFields(ctx, fields), msg, err)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ messaging.Broker = (*Client)(nil)
