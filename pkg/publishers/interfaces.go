// Package publishers forwards completed searches to downstream sinks such as
// webhooks, SQS queues, SNS topics and Pub/Sub topics.
package publishers

import "context"

// Publisher sends search events to one downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt SearchEvent) error
}

// closer is implemented by publishers holding client connections.
type closer interface {
	Close() error
}
