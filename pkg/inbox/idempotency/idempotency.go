package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/redis"
)

// Manager keeps a Redis hint per processed inbox key so duplicates can be
// acked without opening a transaction. The database inbox stays the source
// of truth: a missing hint never means "not processed".
// Keys follow the `shop:idempotency:evt:processed:<consumer>:<key>` pattern.
type Manager struct {
	store redis.HintStore
	ttl   time.Duration
}

// NewManager builds a hint cache that keeps entries for ttl.
func NewManager(store redis.HintStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("hint store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Seen reports whether a hint exists for key.
func (m *Manager) Seen(ctx context.Context, consumer, key string) (bool, error) {
	hintKey, err := m.processedKey(consumer, key)
	if err != nil {
		return false, err
	}
	return m.store.Exists(ctx, hintKey)
}

// MarkProcessed records the hint. Call it only after the inbox transaction
// committed.
func (m *Manager) MarkProcessed(ctx context.Context, consumer, key string) error {
	hintKey, err := m.processedKey(consumer, key)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, hintKey, "1", m.ttl)
}

func (m *Manager) processedKey(consumer, key string) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if key == "" {
		return "", errors.New("inbox key is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("evt:processed:%s", consumer), key), nil
}
