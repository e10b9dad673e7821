package agent

import "time"

// Phase classifies how much of the grant remains.
type Phase int

const (
	// PhaseIdle means no grant is active.
	PhaseIdle Phase = iota
	// PhaseRunning means the grant has comfortably more time left.
	PhaseRunning
	// PhaseUrgent means remaining time has dropped below the urgency
	// threshold and the countdown surfaces should emphasize it.
	PhaseUrgent
	// PhaseExpired means the grant has run out. Entry into this phase is
	// one-shot per grant and leads to the termination cascade.
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseUrgent:
		return "urgent"
	case PhaseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// PhaseFor maps remaining time to a phase. The urgent band starts strictly
// below the threshold, so a grant with exactly the threshold remaining is
// still running.
func PhaseFor(remaining, urgentThreshold time.Duration) Phase {
	switch {
	case remaining <= 0:
		return PhaseExpired
	case remaining < urgentThreshold:
		return PhaseUrgent
	default:
		return PhaseRunning
	}
}
