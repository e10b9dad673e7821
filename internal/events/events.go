// Package events publishes session-governance lifecycle events to a local
// NATS bus so host tooling (dashboards, the interview app, test harnesses)
// can observe the agent without polling it. Publishing is optional: when no
// NATS URL is configured the agent uses NoopPublisher and carries on.
package events

import (
	"context"
	"time"
)

// Event topic constants.
const (
	TopicSessionStarted    = "warden.session.started"
	TopicSessionResumed    = "warden.session.resumed"
	TopicSessionExtended   = "warden.session.extended"
	TopicSessionTerminated = "warden.session.terminated"
	TopicFrameDropped      = "warden.frame.dropped"
)

// SessionStarted is emitted when governance activates for a fresh grant.
type SessionStarted struct {
	Token     string    `json:"token"`
	Owner     string    `json:"owner,omitempty"`
	Requester string    `json:"requester,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResumed is emitted when a persisted grant survives a restart.
// Verified is false when the grantor was unreachable and the agent resumed
// optimistically.
type SessionResumed struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

// SessionExtended is emitted when the reconciler adopts a new expiry.
type SessionExtended struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionTerminated is emitted after the termination cascade completes.
type SessionTerminated struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// FrameDropped is emitted when a capture frame fails the admission check.
type FrameDropped struct {
	Size  int `json:"size"`
	Limit int `json:"limit"`
}

// Publisher is the interface for emitting events. A publish failure never
// affects governance state.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
