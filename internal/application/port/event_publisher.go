package port

import (
	"context"
)

// EventPublisher defines the interface for announcing published reports to a message broker
type EventPublisher interface {
	// PublishEvent publishes an event to the specified subject
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close drains pending publishes and closes the connection
	Close() error
}
