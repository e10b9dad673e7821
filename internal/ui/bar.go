package ui

import (
	"fmt"
	"io"
	"time"
)

// Bar renders the one-line governed-session banner: owner attribution, the
// MM:SS countdown, and the sharing indicator while the capture pipeline is
// active. It rewrites a single terminal line in place.
type Bar struct {
	w       io.Writer
	owner   string
	sharing bool
	visible bool
}

// NewBar creates a session bar writing to w. The owner string is shown as
// the grant attribution ("access granted by ...").
func NewBar(w io.Writer, owner string) *Bar {
	if owner == "" {
		owner = "Owner"
	}
	return &Bar{w: w, owner: owner}
}

// SetSharing toggles the frame-capture indicator.
func (b *Bar) SetSharing(on bool) {
	b.sharing = on
}

// Render draws the bar for the given remaining time. Urgent switches the
// countdown to the amber style; an expired grant shows EXPIRED in red.
func (b *Bar) Render(remaining time.Duration, urgent bool) {
	clock := FormatCountdown(remaining)
	switch {
	case remaining <= 0:
		clock = RenderDanger("EXPIRED")
	case urgent:
		clock = RenderUrgent(clock)
	default:
		clock = RenderOK(clock)
	}

	line := fmt.Sprintf("%s %s %s",
		RenderAccent("[warden]"),
		RenderMuted("access granted by "+b.owner+" ·"),
		clock)
	if b.sharing {
		line += " " + RenderMuted("· sharing")
	}

	// \r + clear-to-end keeps the line stable as its width shrinks.
	fmt.Fprintf(b.w, "\r\x1b[K%s", line)
	b.visible = true
}

// Clear erases the bar line. Safe to call when nothing was rendered.
func (b *Bar) Clear() {
	if !b.visible {
		return
	}
	fmt.Fprint(b.w, "\r\x1b[K")
	b.visible = false
}

// FormatCountdown renders a remaining duration as MM:SS, clamping at zero.
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	total := int(remaining.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
