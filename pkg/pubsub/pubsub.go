// Package pubsub delivers analysis updates to web clients over
// Server-Sent Events.
package pubsub

import (
	"context"
	"encoding/json"
)

// Event is one published message on a topic.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"`
}

// Subscription is one client's view of a topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event delivery.
type Publisher interface {
	// Subscribe creates a subscription; context cancellation closes it.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic.
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions.
	Close() error
}

// RunStatus reports the state of the current analysis run on the "status"
// topic.
type RunStatus struct {
	State   string `json:"state"` // idle, running, done, error
	Message string `json:"message"`
}
