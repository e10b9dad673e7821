// Package client provides a transport-agnostic interface to the grantor
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/vaultoo/warden/internal/session"
)

// GrantorClient is the interface every agent component uses to talk to the
// grantor. It is implemented by HTTPClient and can be backed by any
// transport.
type GrantorClient interface {
	// VerifyOTP exchanges a one-time code for a session grant.
	VerifyOTP(ctx context.Context, otp, accountID string) (*session.Session, error)

	// SessionStatus returns the authoritative state of the grant. This is
	// the only call whose response is allowed to mutate the local expiry.
	SessionStatus(ctx context.Context, token string) (*StatusResponse, error)

	// EndSession tells the grantor the session is over. Callers treat it as
	// best-effort: teardown proceeds whether or not it succeeds.
	EndSession(ctx context.Context, token, reason string) error

	// LogActivity records a discrete user action. The response may carry a
	// risk-based termination instruction.
	LogActivity(ctx context.Context, token string, ev ActivityEvent) (*ActivityResponse, error)

	// SendFrame ships one base64-encoded capture frame.
	SendFrame(ctx context.Context, token, frame string) error

	// RequestExtension asks the grantor for more time. A success response
	// means the request was delivered, not that time was granted; the new
	// expiry only ever arrives through SessionStatus.
	RequestExtension(ctx context.Context, token string, minutes int, reason string) (*ExtensionResponse, error)

	// Lifecycle
	Close() error
}

// StatusResponse is the grantor's answer to a session-status poll.
type StatusResponse struct {
	Active    bool       `json:"active"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ActivityEvent is one discrete user action reported to the grantor.
type ActivityEvent struct {
	ID      string `json:"eventId,omitempty"`
	Action  string `json:"action"`
	Path    string `json:"path,omitempty"`
	Details string `json:"details,omitempty"`
}

// ActivityResponse is the grantor's answer to an activity log. Terminated
// set means the grantor's risk engine killed the session.
type ActivityResponse struct {
	Terminated bool   `json:"terminated,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ExtensionResponse is the grantor's answer to an extension request.
type ExtensionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
