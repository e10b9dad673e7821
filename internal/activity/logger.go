// Package activity reports discrete user actions to the grantor. Reporting
// is fire-and-forget: a log call never blocks the caller and a transport
// failure never surfaces past a debug line. The one response field that
// matters is the risk verdict, which can kill the session.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultoo/warden/internal/client"
	"github.com/vaultoo/warden/internal/idgen"
)

// DefaultRiskReason is shown when the grantor kills a session over risk
// without supplying its own message.
const DefaultRiskReason = "Risk threshold exceeded. Session terminated by security system."

const sendTimeout = 10 * time.Second

// Sender is the slice of the grantor client the logger needs.
type Sender interface {
	LogActivity(ctx context.Context, token string, ev client.ActivityEvent) (*client.ActivityResponse, error)
}

// Logger ships activity events to the grantor on background goroutines.
type Logger struct {
	sender    Sender
	token     func() string // "" means governance inactive, events are skipped
	terminate func(reason string)

	wg sync.WaitGroup
}

// NewLogger creates a logger. terminate is invoked when the grantor's risk
// engine orders the session killed; it must be safe to call from any
// goroutine and idempotent.
func NewLogger(sender Sender, token func() string, terminate func(reason string)) *Logger {
	return &Logger{sender: sender, token: token, terminate: terminate}
}

// Log reports one action. It returns immediately; the send happens on its
// own goroutine. Events raised while no governed session exists are dropped.
func (l *Logger) Log(action, path, details string) {
	token := l.token()
	if token == "" {
		return
	}

	id, err := idgen.GenerateWithPrefix("ev-")
	if err != nil {
		id = ""
	}
	ev := client.ActivityEvent{ID: id, Action: action, Path: path, Details: details}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		resp, err := l.sender.LogActivity(ctx, token, ev)
		if err != nil {
			slog.Debug("activity: report failed", "action", action, "error", err)
			return
		}
		if resp != nil && resp.Terminated {
			reason := resp.Reason
			if reason == "" {
				reason = DefaultRiskReason
			}
			slog.Warn("activity: grantor ordered termination", "action", action, "reason", reason)
			l.terminate(reason)
		}
	}()
}

// Flush waits for in-flight reports to finish. Used during teardown so a
// final event is not lost to process exit.
func (l *Logger) Flush() {
	l.wg.Wait()
}
