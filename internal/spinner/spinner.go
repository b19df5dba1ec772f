package spinner

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const frameDelay = 80 * time.Millisecond

// Spinner animates a one-line status message on a terminal. Lines written
// through Write are printed above the spinner.
type Spinner struct {
	w       io.Writer
	mu      sync.Mutex
	message string
	shown   int
	paused  bool
	done    chan struct{}
	cleared chan struct{}
	once    sync.Once
}

// Start displays an animated spinner with the given message on w.
// Call Stop to stop the spinner and clear the line.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Spinner) run() {
	i := 0
	for {
		select {
		case <-s.done:
			s.mu.Lock()
			s.clearLocked()
			s.mu.Unlock()
			close(s.cleared)
			return
		case <-time.After(frameDelay):
			s.mu.Lock()
			s.drawLocked(frames[i%len(frames)])
			s.mu.Unlock()
			i++
		}
	}
}

// Update replaces the spinner message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Pause clears the line and stops drawing until Resume, so another
// component can own the terminal.
func (s *Spinner) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.paused = true
}

// Resume restarts drawing after Pause.
func (s *Spinner) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// Write prints p above the spinner. Each complete line also becomes the
// spinner message.
func (s *Spinner) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	if _, err := s.w.Write(p); err != nil {
		return 0, err
	}
	if line := lastLine(p); line != "" {
		s.message = line
	}
	return len(p), nil
}

// Stop halts the animation and clears the line. It is safe to call more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.done) })
	<-s.cleared
}

func (s *Spinner) drawLocked(frame string) {
	if s.paused {
		return
	}
	s.clearLocked()
	line := frame + " " + s.message
	fmt.Fprint(s.w, line) //nolint:errcheck
	s.shown = runewidth.StringWidth(line)
}

func (s *Spinner) clearLocked() {
	if s.shown == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%*s\r", s.shown, "") //nolint:errcheck
	s.shown = 0
}

func lastLine(p []byte) string {
	p = bytes.TrimRight(p, "\r\n")
	if i := bytes.LastIndexByte(p, '\n'); i >= 0 {
		p = p[i+1:]
	}
	return string(bytes.TrimSpace(p))
}
