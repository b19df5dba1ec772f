package poller

import (
	"fmt"
	"io"
	"sync"
)

// ProgressLog is the append-only list of status messages shown during a poll.
// Only an exact repeat of the previous message is suppressed.
type ProgressLog struct {
	mu    sync.Mutex
	w     io.Writer
	lines []string
}

// NewProgressLog returns a log that also writes each accepted line to w. A nil
// writer keeps lines in memory only.
func NewProgressLog(w io.Writer) *ProgressLog {
	return &ProgressLog{w: w}
}

// Append records msg unless it is empty or equal to the last line. It reports
// whether the line was added.
func (l *ProgressLog) Append(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if msg == "" || (len(l.lines) > 0 && l.lines[len(l.lines)-1] == msg) {
		return false
	}
	l.lines = append(l.lines, msg)
	if l.w != nil {
		fmt.Fprintln(l.w, msg) //nolint:errcheck
	}
	return true
}

// Lines returns a copy of the accepted lines in arrival order.
func (l *ProgressLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Last returns the most recent line, or "".
func (l *ProgressLog) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[len(l.lines)-1]
}
