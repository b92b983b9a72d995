package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdraft/backend/internal/domain/entities"
	apperrors "github.com/labdraft/backend/pkg/errors"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.entries[key]; ok {
		return data, nil
	}
	return nil, apperrors.NewNotFoundError("key not found")
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// channelEventBus delivers published events to in-process subscribers.
type channelEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.DraftEvent
}

func newChannelEventBus() *channelEventBus {
	return &channelEventBus{subscribers: make(map[string][]chan *entities.DraftEvent)}
}

func (b *channelEventBus) Publish(ctx context.Context, channel string, event *entities.DraftEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers[channel] {
		sub <- event
	}
	return nil
}

func (b *channelEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DraftEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *entities.DraftEvent, 10)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	return ch, nil
}

func (b *channelEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *channelEventBus) Close() error { return nil }

func TestCacheInvalidation_DropsEntryOnDraftEvent(t *testing.T) {
	cache := newFakeCache()
	bus := newChannelEventBus()

	require.NoError(t, cache.Set(context.Background(), "draft:doc:job-1", []byte("{}"), time.Minute))

	svc := NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	err := bus.Publish(context.Background(), "draft:updates", &entities.DraftEvent{
		ID:    "evt-1",
		JobID: "job-1",
		Type:  entities.DraftEventCompleted,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !cache.has("draft:doc:job-1")
	}, time.Second, 5*time.Millisecond)
}

func TestCacheInvalidation_OtherJobsUntouched(t *testing.T) {
	cache := newFakeCache()
	bus := newChannelEventBus()

	require.NoError(t, cache.Set(context.Background(), "draft:doc:job-1", []byte("{}"), time.Minute))
	require.NoError(t, cache.Set(context.Background(), "draft:doc:job-2", []byte("{}"), time.Minute))

	svc := NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	err := bus.Publish(context.Background(), "draft:updates", &entities.DraftEvent{
		ID:    "evt-1",
		JobID: "job-1",
		Type:  entities.DraftEventFailed,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return !cache.has("draft:doc:job-1")
	}, time.Second, 5*time.Millisecond)
	assert.True(t, cache.has("draft:doc:job-2"))
}
