package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/redis"
)

// Manager remembers which outbox events a transport has already accepted, so a
// batch that published but failed to commit does not publish again.
// Keys follow the `dp:idempotency:evt:published:<transport>:<event_id>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds a publish marker that expires after ttl.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// WasPublished reports whether the event carries a publish marker.
func (m *Manager) WasPublished(ctx context.Context, transport string, eventID uuid.UUID) (bool, error) {
	key, err := m.publishedKey(transport, eventID)
	if err != nil {
		return false, err
	}
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkPublished records the publish marker. It returns false when the marker
// already existed.
func (m *Manager) MarkPublished(ctx context.Context, transport string, eventID uuid.UUID) (bool, error) {
	key, err := m.publishedKey(transport, eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

func (m *Manager) Delete(ctx context.Context, transport string, eventID uuid.UUID) error {
	key, err := m.publishedKey(transport, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) publishedKey(transport string, eventID uuid.UUID) (string, error) {
	if transport == "" {
		return "", errors.New("transport name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	scope := fmt.Sprintf("evt:published:%s", transport)
	return m.store.IdempotencyKey(scope, eventID.String()), nil
}
