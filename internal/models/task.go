package models

import (
	"encoding/json"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// TaskState is the backend-reported state of an asynchronous task.
type TaskState string

const (
	TaskPending  TaskState = "PENDING"
	TaskProgress TaskState = "PROGRESS"
	TaskSuccess  TaskState = "SUCCESS"
	TaskFailure  TaskState = "FAILURE"
	// TaskStarted and TaskRetry are emitted by some Celery configurations and are
	// treated like PROGRESS.
	TaskStarted TaskState = "STARTED"
	TaskRetry   TaskState = "RETRY"
)

// DefaultFailureReason is shown when a failed task carries no reason.
const DefaultFailureReason = "An error occurred during processing."

// IsTerminal reports whether no further status changes are expected.
func (s TaskState) IsTerminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// TaskStatus is the response of the status-by-task-id endpoint.
type TaskStatus struct {
	Status TaskState       `json:"status"`
	Info   any             `json:"info,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// ProgressInfo is the structured form of TaskStatus.Info while a task runs.
type ProgressInfo struct {
	StatusMessage string `mapstructure:"status_message"`
	Current       int    `mapstructure:"current"`
	Total         int    `mapstructure:"total"`
}

// Progress decodes Info into a ProgressInfo. Info is free-form (Celery puts
// whatever the task reported there), so anything that is not an object yields
// a zero value.
func (t *TaskStatus) Progress() ProgressInfo {
	var p ProgressInfo
	m, ok := t.Info.(map[string]any)
	if !ok {
		return p
	}
	_ = mapstructure.WeakDecode(m, &p)
	p.StatusMessage = strings.TrimSpace(p.StatusMessage)
	return p
}

// FailureReason extracts the server-provided reason for a FAILURE status,
// falling back to DefaultFailureReason.
func (t *TaskStatus) FailureReason() string {
	if s := rawString(t.Result); s != "" {
		return s
	}
	var withError struct {
		Error string `json:"error"`
	}
	if len(t.Result) > 0 && json.Unmarshal(t.Result, &withError) == nil && withError.Error != "" {
		return withError.Error
	}
	switch info := t.Info.(type) {
	case string:
		if s := strings.TrimSpace(info); s != "" {
			return s
		}
	case map[string]any:
		for _, key := range []string{"exc_message", "error", "status_message"} {
			if s, ok := info[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return DefaultFailureReason
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
