// Package messagingtest provides an in-memory broker for tests.
package messagingtest

import (
	"context"
	"errors"
	"sync"

	"github.com/DarkRecklessness/ShopService/pkg/messaging"
)

// Broker keeps per-queue FIFO buffers. Requeued messages go to the back of
// their queue with Redelivered set.
type Broker struct {
	mu        sync.Mutex
	queues    map[string][]messaging.Message
	published []Published
	notify    map[string]chan struct{}
	failWith  error
}

// Published records one confirmed publish.
type Published struct {
	Queue   string
	Message messaging.Message
}

func NewBroker() *Broker {
	return &Broker{
		queues: make(map[string][]messaging.Message),
		notify: make(map[string]chan struct{}),
	}
}

func (b *Broker) Publish(ctx context.Context, queue string, msg messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.queues[queue] = append(b.queues[queue], msg)
	b.published = append(b.published, Published{Queue: queue, Message: msg})
	b.signalLocked(queue)
	return nil
}

// FailPublishes makes every Publish return err until called again with nil.
func (b *Broker) FailPublishes(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

// Inject enqueues msg without recording it as published.
func (b *Broker) Inject(queue string, msg messaging.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[queue] = append(b.queues[queue], msg)
	b.signalLocked(queue)
}

func (b *Broker) Consume(ctx context.Context, queue string, handler messaging.Handler) error {
	for {
		if msg, ok := b.pop(queue); ok {
			if handler(ctx, msg) == messaging.Requeue {
				msg.Redelivered = true
				b.Inject(queue, msg)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-b.wakeup(queue):
		}
	}
}

// Drain delivers every queued message of queue to handler and returns how
// many deliveries were made. Requeued messages are redelivered until acked
// or until limit deliveries have happened.
func (b *Broker) Drain(ctx context.Context, queue string, handler messaging.Handler, limit int) int {
	delivered := 0
	for delivered < limit {
		msg, ok := b.pop(queue)
		if !ok {
			return delivered
		}
		delivered++
		if handler(ctx, msg) == messaging.Requeue {
			msg.Redelivered = true
			b.Inject(queue, msg)
		}
	}
	return delivered
}

func (b *Broker) Published() []Published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Published, len(b.published))
	copy(out, b.published)
	return out
}

// Pending is the number of undelivered messages on queue.
func (b *Broker) Pending(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[queue])
}

func (b *Broker) Ping(context.Context) error {
	return nil
}

func (b *Broker) Close() error {
	return nil
}

func (b *Broker) pop(queue string) (messaging.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pending := b.queues[queue]
	if len(pending) == 0 {
		return messaging.Message{}, false
	}
	msg := pending[0]
	b.queues[queue] = pending[1:]
	return msg, true
}

func (b *Broker) wakeup(queue string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channelLocked(queue)
}

func (b *Broker) channelLocked(queue string) chan struct{} {
	ch, ok := b.notify[queue]
	if !ok {
		ch = make(chan struct{}, 1)
		b.notify[queue] = ch
	}
	return ch
}

func (b *Broker) signalLocked(queue string) {
	select {
	case b.channelLocked(queue) <- struct{}{}:
	default:
	}
}

// ErrUnavailable simulates a broker outage.
var ErrUnavailable = errors.New("broker unavailable")

var _ messaging.Broker = (*Broker)(nil)
