package providers

import (
	"context"

	"github.com/labdraft/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to draft
// lifecycle events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DraftEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DraftEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelDraftUpdates is the channel carrying every draft transition
	EventChannelDraftUpdates = "draft:updates"

	// EventChannelDraftPrefix is the prefix for job-specific channels
	EventChannelDraftPrefix = "draft:"
)

// GetDraftChannel returns the channel name for a specific job
func GetDraftChannel(jobID string) string {
	return EventChannelDraftPrefix + jobID
}
