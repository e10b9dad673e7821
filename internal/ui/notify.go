package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Severity classifies a notice for styling.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityDanger
)

// Notice is an ephemeral notification surfaced to the grantee. At most one
// is visible at a time; rendering a new one replaces whatever came before.
type Notice struct {
	Title    string
	Message  string
	Severity Severity
}

// Notifier surfaces notices to the user. Notify is transient and must not
// block governance timers; NotifyBlocking is reserved for governance-ending
// notices and returns only once the user has acknowledged (or no terminal
// is attached).
type Notifier interface {
	Notify(n Notice)
	NotifyBlocking(n Notice)
}

// TerminalNotifier renders boxed notices to a terminal.
type TerminalNotifier struct {
	w io.Writer
	r io.Reader // acknowledgement source; nil means never wait
}

// NewTerminalNotifier creates a notifier writing to w. Pass a non-nil reader
// (normally stdin) to make blocking notices wait for a newline.
func NewTerminalNotifier(w io.Writer, r io.Reader) *TerminalNotifier {
	return &TerminalNotifier{w: w, r: r}
}

func (t *TerminalNotifier) Notify(n Notice) {
	t.print(n)
}

func (t *TerminalNotifier) NotifyBlocking(n Notice) {
	t.print(n)
	if t.r == nil {
		return
	}
	fmt.Fprint(t.w, RenderMuted("press enter to continue "))
	_, _ = bufio.NewReader(t.r).ReadString('\n')
}

func (t *TerminalNotifier) print(n Notice) {
	style := RenderAccent
	switch n.Severity {
	case SeverityWarning:
		style = RenderWarning
	case SeverityDanger:
		style = RenderDanger
	}

	width := len(n.Title)
	if len(n.Message) > width {
		width = len(n.Message)
	}
	rule := strings.Repeat("─", width+2)

	fmt.Fprintf(t.w, "\n%s\n %s\n", style("┌"+rule+"┐"), style(n.Title))
	if n.Message != "" {
		fmt.Fprintf(t.w, " %s\n", n.Message)
	}
	fmt.Fprintf(t.w, "%s\n", style("└"+rule+"┘"))
}
