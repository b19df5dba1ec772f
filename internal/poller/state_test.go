package poller

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from  State
		event Event
		want  State
	}{
		{Idle, EventStart, Polling},
		{Succeeded, EventStart, Polling},
		{Failed, EventStart, Polling},
		{Polling, EventProgress, Polling},
		{Polling, EventSuccess, Succeeded},
		{Polling, EventFailure, Failed},
		{Polling, EventPollError, Failed},
		{Polling, EventCancel, Idle},
		// Late events never move a poll that is no longer running.
		{Idle, EventSuccess, Idle},
		{Idle, EventProgress, Idle},
		{Succeeded, EventFailure, Succeeded},
		{Failed, EventSuccess, Failed},
		{Succeeded, EventCancel, Succeeded},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.event))
		})
	}
}

func TestStateFinal(t *testing.T) {
	assert.True(t, Succeeded.Final())
	assert.True(t, Failed.Final())
	assert.False(t, Polling.Final())
	assert.False(t, Idle.Final())
}

func TestProgressLog_SuppressesConsecutiveDuplicates(t *testing.T) {
	var buf bytes.Buffer
	l := NewProgressLog(&buf)

	for _, msg := range []string{"A", "A", "B", "", "B", "A"} {
		l.Append(msg)
	}

	assert.Equal(t, []string{"A", "B", "A"}, l.Lines())
	assert.Equal(t, "A\nB\nA\n", buf.String())
	assert.Equal(t, "A", l.Last())
}

func TestProgressLog_NilWriter(t *testing.T) {
	l := NewProgressLog(nil)
	assert.True(t, l.Append("x"))
	assert.False(t, l.Append("x"))
	assert.Equal(t, []string{"x"}, l.Lines())
	assert.Equal(t, "", NewProgressLog(nil).Last())
}
