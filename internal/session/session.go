// Package session defines the governed Session record, a time-boxed and
// remotely-revocable access grant issued by the grantor, along with its
// local persistence. The record is the single unit of governance state: the agent
// is in governed mode exactly when a record exists and its expiry is in the
// future. The expiry is always a grantor-issued value; the agent only ever
// adopts new values pushed by the reconciler or an extension response, it
// never fabricates or advances one locally.
package session

import (
	"time"
)

// Credentials is the delegated identity the grant was issued for.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Session is the active grant. Exactly zero or one exists per agent instance.
type Session struct {
	Token         string      `json:"sessionToken"`
	Credentials   Credentials `json:"credentials"`
	Owner         string      `json:"owner,omitempty"`
	RequesterName string      `json:"requesterName,omitempty"`
	ExpiresAt     time.Time   `json:"expiresAt"`
}

// Live reports whether the grant is valid at the given instant.
func (s *Session) Live(now time.Time) bool {
	return s != nil && s.Token != "" && s.ExpiresAt.After(now)
}

// Remaining returns the time left on the grant at the given instant.
// Negative once expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// DisplayName returns the best available name for the grantee.
func (s *Session) DisplayName() string {
	if s.RequesterName != "" {
		return s.RequesterName
	}
	if s.Credentials.Username != "" {
		return s.Credentials.Username
	}
	return s.Credentials.Email
}

// Extension request bounds, enforced client-side before any network call.
const (
	MinExtensionMinutes = 5
	MaxExtensionMinutes = 480
)

// ValidExtensionMinutes reports whether a requested extension is within the
// allowed 5–480 minute range.
func ValidExtensionMinutes(minutes int) bool {
	return minutes >= MinExtensionMinutes && minutes <= MaxExtensionMinutes
}

// User is the application-level identity record kept alongside the grant.
// It carries the local app session ID so the host application can correlate
// its own state with the governed grant.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	AppSessionID string `json:"appSessionId"`
}
