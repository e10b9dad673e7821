// Package agent owns the governed-session lifecycle: the countdown timer,
// the status reconciler, the capture schedule, and the termination cascade.
// The manager is the only component allowed to clear the session record, and
// the reconciler is the only place a new expiry is ever adopted.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultoo/warden/internal/activity"
	"github.com/vaultoo/warden/internal/capture"
	"github.com/vaultoo/warden/internal/client"
	"github.com/vaultoo/warden/internal/config"
	"github.com/vaultoo/warden/internal/events"
	"github.com/vaultoo/warden/internal/session"
	"github.com/vaultoo/warden/internal/ui"
)

// ReasonUserEnded is the wire reason for a grantee-initiated shutdown.
const ReasonUserEnded = "USER_ENDED"

// ReasonExpired is the reason recorded when the countdown runs out.
const ReasonExpired = "Session Expired"

// ReasonRevoked is used when the grantor reports the session inactive
// without saying why.
const ReasonRevoked = "Session ended by owner"

// Options configures a Manager. Store and Client are required; everything
// else has a working zero value.
type Options struct {
	Store     session.Store
	Client    client.GrantorClient
	Config    *config.Config
	Publisher events.Publisher // nil disables events
	Notifier  ui.Notifier      // nil discards notices
	Bar       *ui.Bar          // nil disables the session bar
	Source    capture.Source   // nil disables frame capture
	Clock     func() time.Time // nil uses time.Now
}

// Manager drives a governed session from activation to teardown.
type Manager struct {
	store    session.Store
	cli      client.GrantorClient
	cfg      *config.Config
	pub      events.Publisher
	notifier ui.Notifier
	bar      *ui.Bar
	pipeline *capture.Pipeline
	logger   *activity.Logger
	clock    func() time.Time

	mu         sync.Mutex
	sess       *session.Session
	phase      Phase
	halted     bool // expiry reached, periodic work disabled
	terminated bool
	sched      *Scheduler
	done       chan struct{}
	callbacks  []func(reason string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(ui.Notice)         {}
func (noopNotifier) NotifyBlocking(ui.Notice) {}

// NewManager wires a manager from its options.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:    opts.Store,
		cli:      opts.Client,
		cfg:      opts.Config,
		pub:      opts.Publisher,
		notifier: opts.Notifier,
		bar:      opts.Bar,
		clock:    opts.Clock,
		phase:    PhaseIdle,
	}
	if m.cfg == nil {
		m.cfg = &config.Config{
			PollInterval:    config.DefaultPollInterval,
			CaptureInterval: config.DefaultCaptureInterval,
			TickInterval:    config.DefaultTickInterval,
			UrgentThreshold: config.DefaultUrgentThreshold,
			ExpiryGrace:     config.DefaultExpiryGrace,
			FrameLimit:      config.DefaultFrameLimit,
			CaptureQuality:  config.DefaultCaptureQuality,
			CaptureScale:    config.DefaultCaptureScale,
		}
	}
	if m.pub == nil {
		m.pub = &events.NoopPublisher{}
	}
	if m.notifier == nil {
		m.notifier = noopNotifier{}
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if opts.Source != nil {
		onSharing := func(on bool) {
			if m.bar != nil {
				m.bar.SetSharing(on)
			}
		}
		m.pipeline = capture.New(opts.Source, m.cli, m.CurrentToken, m.pub, onSharing, capture.Options{
			Quality: m.cfg.CaptureQuality,
			Scale:   m.cfg.CaptureScale,
			Limit:   m.cfg.FrameLimit,
		})
	}
	m.logger = activity.NewLogger(m.cli, m.CurrentToken, m.Terminate)
	return m
}

// Activate starts governance for a freshly granted session: the record is
// persisted, then the countdown, reconciler, and capture schedule start.
func (m *Manager) Activate(s *session.Session) error {
	if s == nil || s.Token == "" {
		return errors.New("agent: session grant has no token")
	}
	if !s.Live(m.clock()) {
		return errors.New("agent: session grant is already expired")
	}
	m.mu.Lock()
	active := m.sess != nil
	m.mu.Unlock()
	if active {
		return errors.New("agent: a governed session is already active")
	}
	if err := m.store.Save(s); err != nil {
		return fmt.Errorf("agent: persist session: %w", err)
	}
	if err := m.begin(s); err != nil {
		return err
	}

	m.publish(events.TopicSessionStarted, events.SessionStarted{
		Token:     s.Token,
		Owner:     s.Owner,
		Requester: s.RequesterName,
		ExpiresAt: s.ExpiresAt,
	})
	m.logger.Log("SESSION_STARTED", "", "granted by "+s.Owner)
	slog.Info("session activated", "owner", s.Owner, "expires_at", s.ExpiresAt)
	return nil
}

// Resume restores governance from a persisted record after a restart. It
// makes one verification poll first: an explicit "inactive" answer clears
// the record, while an unreachable grantor resumes optimistically and
// leaves the verdict to the reconciler. Returns false when there is nothing
// to resume.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	s, err := m.store.Load()
	if err != nil {
		return false, fmt.Errorf("agent: load session: %w", err)
	}
	if s == nil {
		return false, nil
	}

	verified := false
	resp, err := m.cli.SessionStatus(ctx, s.Token)
	switch {
	case err != nil:
		slog.Warn("resume: verification poll failed, resuming optimistically", "error", err)
	case !resp.Active:
		reason := resp.Reason
		if reason == "" {
			reason = ReasonRevoked
		}
		if cerr := m.store.Clear(); cerr != nil {
			slog.Warn("resume: clear stale record", "error", cerr)
		}
		m.notifier.NotifyBlocking(ui.Notice{
			Title:    "Session Ended",
			Message:  reason,
			Severity: ui.SeverityDanger,
		})
		return false, nil
	default:
		verified = true
		if resp.ExpiresAt != nil && !resp.ExpiresAt.Equal(s.ExpiresAt) {
			s.ExpiresAt = *resp.ExpiresAt
			if serr := m.store.Save(s); serr != nil {
				slog.Warn("resume: persist refreshed expiry", "error", serr)
			}
		}
	}

	if !s.Live(m.clock()) {
		if cerr := m.store.Clear(); cerr != nil {
			slog.Warn("resume: clear expired record", "error", cerr)
		}
		return false, nil
	}
	if err := m.begin(s); err != nil {
		return false, err
	}

	m.publish(events.TopicSessionResumed, events.SessionResumed{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		Verified:  verified,
	})
	slog.Info("session resumed", "verified", verified, "expires_at", s.ExpiresAt)
	return true, nil
}

func (m *Manager) begin(s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		return errors.New("agent: a governed session is already active")
	}

	m.sess = s
	m.phase = PhaseRunning
	m.halted = false
	m.terminated = false
	m.done = make(chan struct{})

	sched := NewScheduler()
	sched.Add("countdown", m.cfg.TickInterval, true, m.countdownTick)
	sched.Add("reconciler", m.cfg.PollInterval, true, m.reconcileTick)
	if m.pipeline != nil {
		sched.Add("capture", m.cfg.CaptureInterval, true, func(ctx context.Context) {
			if err := m.pipeline.Capture(ctx); err != nil {
				slog.Debug("capture tick failed", "error", err)
			}
		})
		m.pipeline.Start()
	}
	m.sched = sched
	sched.Start()
	return nil
}

// countdownTick reclassifies the remaining time once per tick. Entering the
// expired phase is one-shot: periodic work halts and the cascade is
// scheduled after the expiry grace, leaving a short window in which a
// reconciler verdict that raced the local clock can still win.
func (m *Manager) countdownTick(_ context.Context) {
	m.mu.Lock()
	if m.sess == nil || m.halted {
		m.mu.Unlock()
		return
	}
	remaining := m.sess.Remaining(m.clock())
	prev := m.phase
	next := PhaseFor(remaining, m.cfg.UrgentThreshold)
	m.phase = next
	if next == PhaseExpired {
		m.halted = true
	}
	m.mu.Unlock()

	if m.bar != nil {
		m.bar.Render(remaining, next == PhaseUrgent)
	}
	if next == PhaseUrgent && prev == PhaseRunning {
		m.notifier.Notify(ui.Notice{
			Title:    "Session Ending Soon",
			Message:  fmt.Sprintf("Less than %s remaining.", m.cfg.UrgentThreshold),
			Severity: ui.SeverityWarning,
		})
	}
	if next == PhaseExpired && prev != PhaseExpired {
		slog.Info("countdown expired, scheduling termination", "grace", m.cfg.ExpiryGrace)
		time.AfterFunc(m.cfg.ExpiryGrace, func() { m.Terminate(ReasonExpired) })
	}
}

// reconcileTick polls the grantor for the authoritative state. An inactive
// answer terminates; a changed expiry is adopted and persisted. Transport
// failures are logged and the local countdown stays in charge.
func (m *Manager) reconcileTick(ctx context.Context) {
	m.mu.Lock()
	if m.sess == nil || m.halted {
		m.mu.Unlock()
		return
	}
	token := m.sess.Token
	m.mu.Unlock()

	resp, err := m.cli.SessionStatus(ctx, token)
	if err != nil {
		slog.Warn("reconciler: status poll failed", "error", err)
		return
	}
	if !resp.Active {
		reason := resp.Reason
		if reason == "" {
			reason = ReasonRevoked
		}
		m.Terminate(reason)
		return
	}
	if resp.ExpiresAt == nil {
		return
	}

	m.mu.Lock()
	if m.sess == nil || m.sess.ExpiresAt.Equal(*resp.ExpiresAt) {
		m.mu.Unlock()
		return
	}
	m.sess.ExpiresAt = *resp.ExpiresAt
	snapshot := *m.sess
	m.mu.Unlock()

	if err := m.store.Save(&snapshot); err != nil {
		slog.Warn("reconciler: persist new expiry", "error", err)
	}
	m.notifier.Notify(ui.Notice{
		Title:    "Session Extended",
		Message:  "New end time: " + snapshot.ExpiresAt.Local().Format("15:04:05"),
		Severity: ui.SeverityInfo,
	})
	m.publish(events.TopicSessionExtended, events.SessionExtended{
		Token:     snapshot.Token,
		ExpiresAt: snapshot.ExpiresAt,
	})
	slog.Info("reconciler: adopted new expiry", "expires_at", snapshot.ExpiresAt)
}

// Terminate runs the termination cascade exactly once per grant. All paths
// that end a session converge here: user quit, countdown expiry, owner
// revocation, and risk verdicts. Safe to call from any goroutine, including
// scheduler ticks; the teardown itself runs on its own goroutine and Wait
// blocks until it completes.
func (m *Manager) Terminate(reason string) {
	m.mu.Lock()
	if m.terminated {
		m.mu.Unlock()
		return
	}
	m.terminated = true
	m.halted = true
	sess := m.sess
	sched := m.sched
	done := m.done
	m.mu.Unlock()

	go m.cascade(sess, sched, done, reason)
}

func (m *Manager) cascade(sess *session.Session, sched *Scheduler, done chan struct{}, reason string) {
	slog.Info("terminating session", "reason", reason)

	// 1. Stop periodic work before anything else so no tick observes a
	// half-torn-down session.
	if sched != nil {
		sched.Stop()
		sched.Wait()
	}

	// 2. Stop frame capture.
	if m.pipeline != nil {
		m.pipeline.Stop()
	}

	// 3. Tell the grantor, best-effort. Teardown proceeds either way.
	if sess != nil {
		ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
		if err := m.cli.EndSession(ctx, sess.Token, reason); err != nil {
			slog.Warn("cascade: end-session call failed", "error", err)
		}
		cancel()
	}

	// 4. Clear the record, persisted first, then in-memory.
	if err := m.store.Clear(); err != nil {
		slog.Warn("cascade: clear session record", "error", err)
	}
	m.mu.Lock()
	m.sess = nil
	m.phase = PhaseIdle
	m.sched = nil
	m.mu.Unlock()

	// 5. Drop the session bar.
	if m.bar != nil {
		m.bar.Clear()
	}

	// 6. Surface the ending and release anyone waiting.
	m.notifier.NotifyBlocking(ui.Notice{
		Title:    "Session Ended",
		Message:  humanReason(reason),
		Severity: severityFor(reason),
	})
	m.mu.Lock()
	callbacks := append([]func(string){}, m.callbacks...)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn(reason)
	}
	if sess != nil {
		m.publish(events.TopicSessionTerminated, events.SessionTerminated{
			Token:  sess.Token,
			Reason: reason,
		})
	}
	if done != nil {
		close(done)
	}
}

// RequestExtension asks the grantor for more time. Validation happens before
// any network call; a delivered request never changes the local expiry, that
// only happens when the reconciler sees the owner's approval.
func (m *Manager) RequestExtension(ctx context.Context, minutes int, reason string) error {
	m.mu.Lock()
	sess := m.sess
	m.mu.Unlock()
	if sess == nil {
		return errors.New("agent: no governed session")
	}
	if !session.ValidExtensionMinutes(minutes) {
		return fmt.Errorf("agent: extension must be between %d and %d minutes",
			session.MinExtensionMinutes, session.MaxExtensionMinutes)
	}
	if reason == "" {
		reason = fmt.Sprintf("Requesting %d more minutes", minutes)
	}

	resp, err := m.cli.RequestExtension(ctx, sess.Token, minutes, reason)
	if err != nil {
		slog.Warn("extension request failed", "error", err)
		m.notifier.Notify(ui.Notice{
			Title:    "Extension Request Failed",
			Message:  "Could not deliver the request. Try again.",
			Severity: ui.SeverityWarning,
		})
		return err
	}
	if !resp.Success {
		slog.Info("extension request declined", "message", resp.Message)
		msg := resp.Message
		if msg == "" {
			msg = "Could not deliver the request. Try again."
		}
		m.notifier.Notify(ui.Notice{
			Title:    "Extension Request Failed",
			Message:  msg,
			Severity: ui.SeverityWarning,
		})
		return nil
	}

	m.logger.Log("EXTENSION_REQUESTED", "", fmt.Sprintf("%d minutes: %s", minutes, reason))
	m.notifier.Notify(ui.Notice{
		Title:    "Extension Requested",
		Message:  "Waiting for the session owner to approve.",
		Severity: ui.SeverityInfo,
	})
	return nil
}

// CurrentToken returns the live session token, or "" when governance is
// inactive. Shared with the capture pipeline and the activity logger so
// both stop producing the instant the record is cleared.
func (m *Manager) CurrentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil || !m.sess.Live(m.clock()) {
		return ""
	}
	return m.sess.Token
}

// IsGoverned reports whether a live governed session exists.
func (m *Manager) IsGoverned() bool {
	return m.CurrentToken() != ""
}

// Session returns a copy of the current record, or nil.
func (m *Manager) Session() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	cp := *m.sess
	return &cp
}

// Phase returns the current countdown phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Activity returns the session's activity logger.
func (m *Manager) Activity() *activity.Logger {
	return m.logger
}

// OnTerminated registers a callback invoked at the end of the cascade.
func (m *Manager) OnTerminated(fn func(reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Wait blocks until the termination cascade has completed. Returns
// immediately when no session was ever activated.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Manager) publish(topic string, event any) {
	if err := m.pub.Publish(context.Background(), topic, event); err != nil {
		slog.Debug("event publish failed", "topic", topic, "error", err)
	}
}

func humanReason(reason string) string {
	if reason == ReasonUserEnded {
		return "You ended the session."
	}
	return reason
}

func severityFor(reason string) ui.Severity {
	switch reason {
	case ReasonUserEnded:
		return ui.SeverityInfo
	case ReasonExpired:
		return ui.SeverityWarning
	default:
		return ui.SeverityDanger
	}
}
