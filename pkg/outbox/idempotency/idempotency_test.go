package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values      map[string]string
	getErr      error
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "dp:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.lastDeleted = key
	}
	return nil
}

func TestNewManagerValidates(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(newFakeStore(), -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestMarkThenWasPublished(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()
	eventID := uuid.New()

	published, err := manager.WasPublished(ctx, "kafka", eventID)
	if err != nil {
		t.Fatalf("WasPublished: %v", err)
	}
	if published {
		t.Fatal("expected unmarked event")
	}

	fresh, err := manager.MarkPublished(ctx, "kafka", eventID)
	if err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if !fresh {
		t.Fatal("expected first mark to be fresh")
	}
	expectedKey := "dp:idempotency:evt:published:kafka:" + eventID.String()
	if store.lastKey != expectedKey {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}

	published, err = manager.WasPublished(ctx, "kafka", eventID)
	if err != nil {
		t.Fatalf("WasPublished: %v", err)
	}
	if !published {
		t.Fatal("expected marked event")
	}

	fresh, err = manager.MarkPublished(ctx, "kafka", eventID)
	if err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	if fresh {
		t.Fatal("expected second mark to report existing marker")
	}

	other, err := manager.WasPublished(ctx, "pubsub", eventID)
	if err != nil {
		t.Fatalf("WasPublished: %v", err)
	}
	if other {
		t.Fatal("markers are scoped per transport")
	}
}

func TestWasPublishedPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("boom")
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.WasPublished(context.Background(), "kafka", uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMarkPublishedRequiresIdentifiers(t *testing.T) {
	manager, err := NewManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.MarkPublished(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected error for empty transport")
	}
	if _, err := manager.MarkPublished(context.Background(), "kafka", uuid.Nil); err == nil {
		t.Fatal("expected error for nil event id")
	}
}

func TestDeleteMarker(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	if err := manager.Delete(context.Background(), "pubsub", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	expected := "dp:idempotency:evt:published:pubsub:" + eventID.String()
	if store.lastDeleted != expected {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}
