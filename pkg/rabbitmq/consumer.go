package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// Consume delivers messages from queue to handler with manual acks until ctx
// is cancelled. A lost channel or connection is re-established after the
// consumer error backoff.
func (c *Client) Consume(ctx context.Context, queue string, handler messaging.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	logCtx := ctx
	if c.logg != nil {
		logCtx = c.logg.WithField(ctx, "queue", queue)
	}

	for {
		err := c.consumeOnce(ctx, queue, handler)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errClosed) {
			return err
		}
		c.logError(logCtx, "rabbitmq consumer interrupted, reconnecting", err, map[string]any{
			"retry_in": c.consumeBackoff.String(),
		})
		if !sleep(ctx, c.consumeBackoff) {
			return nil
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, queue string, handler messaging.Handler) error {
	ch, err := c.consumerChannel(queue)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(queue, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "queue", queue), "rabbitmq consumer started")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", queue)
			}
			if err := settle(d, handler(ctx, fromDelivery(d))); err != nil {
				return fmt.Errorf("settle delivery: %w", err)
			}
		}
	}
}

func (c *Client) consumerChannel(queue string) (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connectionLocked()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return ch, nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(d acknowledger, outcome messaging.Outcome) error {
	if outcome == messaging.Requeue {
		return d.Nack(false, true)
	}
	return d.Ack(false)
}
