package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// Publish sends msg to queue through the default exchange and blocks until
// the broker confirms it. Publishes are serialized so confirmations can be
// matched by delivery tag.
func (c *Client) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, confirms, err := c.publishChannelLocked()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	seq := ch.GetNextPublishSeqNo()
	if err := ch.PublishWithContext(pubCtx, "", queue, false, false, toPublishing(msg)); err != nil {
		c.dropPublishChannelLocked()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	if err := waitForConfirm(pubCtx, confirms, seq); err != nil {
		// a late confirmation would be matched to the next publish
		c.dropPublishChannelLocked()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (c *Client) publishChannelLocked() (*amqp.Channel, chan amqp.Confirmation, error) {
	if c.pubCh != nil && !c.pubCh.IsClosed() {
		return c.pubCh, c.confirms, nil
	}
	conn, err := c.connectionLocked()
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open publish channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	c.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	c.pubCh = ch
	return ch, c.confirms, nil
}

func (c *Client) dropPublishChannelLocked() {
	if c.pubCh != nil {
		_ = c.pubCh.Close()
	}
	c.pubCh = nil
	c.confirms = nil
}

// waitForConfirm waits for the confirmation of delivery tag seq. Older tags
// left over from earlier publishes are skipped.
func waitForConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, seq uint64) error {
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return errConfirmTimeout
			}
			return ctx.Err()
		case confirm, ok := <-confirms:
			if !ok {
				return errConfirmsClosed
			}
			if confirm.DeliveryTag < seq {
				continue
			}
			if !confirm.Ack {
				return errNacked
			}
			return nil
		}
	}
}
