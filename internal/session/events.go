package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart  EventType = "session_start"
	EventSessionEnd    EventType = "session_complete"
	EventPollStart     EventType = "poll_start"
	EventPollProgress  EventType = "poll_progress"
	EventPollComplete  EventType = "poll_complete"
	EventStaleResponse EventType = "stale_response"
	EventSelection     EventType = "selection_submitted"
	EventError         EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for a session start.
func SessionStartData(command, baseURL, lang string) map[string]any {
	return map[string]any{
		"command":  command,
		"base_url": baseURL,
		"lang":     lang,
	}
}

// SessionCompleteData returns event data for a session end.
func SessionCompleteData(analysisID, outcome string, durationMs int64) map[string]any {
	return map[string]any{
		"analysis_id": analysisID,
		"outcome":     outcome,
		"duration_ms": durationMs,
	}
}

// PollStartData returns event data for a poll being scheduled.
func PollStartData(taskID, epoch string, intervalMs int64) map[string]any {
	return map[string]any{
		"task_id":     taskID,
		"epoch":       epoch,
		"interval_ms": intervalMs,
	}
}

// PollProgressData returns event data for a displayed progress message.
func PollProgressData(taskID, message string) map[string]any {
	return map[string]any{
		"task_id": taskID,
		"message": message,
	}
}

// PollCompleteData returns event data for a poll reaching a final state.
func PollCompleteData(taskID, state, reason string, durationMs int64) map[string]any {
	d := map[string]any{
		"task_id":     taskID,
		"state":       state,
		"duration_ms": durationMs,
	}
	if reason != "" {
		d["reason"] = reason
	}
	return d
}

// StaleResponseData returns event data for a response dropped because its poll
// was superseded.
func StaleResponseData(taskID, epoch string) map[string]any {
	return map[string]any{
		"task_id": taskID,
		"epoch":   epoch,
	}
}

// SelectionData returns event data for a claim selection submission.
func SelectionData(analysisID string, claimCount int) map[string]any {
	return map[string]any{
		"analysis_id": analysisID,
		"claim_count": claimCount,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
