package events

import "context"

// NoopPublisher discards all events. It stands in for the NATS publisher
// when no WARDEN_NATS_URL is configured, so governance code can publish
// unconditionally.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
