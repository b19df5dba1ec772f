// Package poller tracks an asynchronous backend task until it reaches a final
// state.
package poller

import "fmt"

// State is the lifecycle state of a single poll.
type State int

const (
	Idle State = iota
	Polling
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Final reports whether the state ends a poll.
func (s State) Final() bool {
	return s == Succeeded || s == Failed
}

// Event drives a State change.
type Event int

const (
	EventStart Event = iota
	EventProgress
	EventSuccess
	EventFailure
	EventPollError
	EventCancel
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventProgress:
		return "progress"
	case EventSuccess:
		return "success"
	case EventFailure:
		return "failure"
	case EventPollError:
		return "poll_error"
	case EventCancel:
		return "cancel"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition returns the state that follows s on e. Start always begins a new
// poll; every other event only has an effect while Polling, so late responses
// cannot move a finished or cancelled poll.
func Transition(s State, e Event) State {
	if e == EventStart {
		return Polling
	}
	if s != Polling {
		return s
	}
	switch e {
	case EventProgress:
		return Polling
	case EventSuccess:
		return Succeeded
	case EventFailure, EventPollError:
		return Failed
	case EventCancel:
		return Idle
	default:
		return s
	}
}
