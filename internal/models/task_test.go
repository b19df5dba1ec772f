package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStateIsTerminal(t *testing.T) {
	assert.True(t, TaskSuccess.IsTerminal())
	assert.True(t, TaskFailure.IsTerminal())
	for _, s := range []TaskState{TaskPending, TaskProgress, TaskStarted, TaskRetry, "SOMETHING"} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestTaskStatusProgress(t *testing.T) {
	var st TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`{
		"status": "PROGRESS",
		"info": {"status_message": "  Extracting claims...  ", "current": "2", "total": 5}
	}`), &st))

	p := st.Progress()
	assert.Equal(t, "Extracting claims...", p.StatusMessage)
	assert.Equal(t, 2, p.Current)
	assert.Equal(t, 5, p.Total)
}

func TestTaskStatusProgress_NonObjectInfo(t *testing.T) {
	for _, raw := range []string{
		`{"status": "PENDING"}`,
		`{"status": "PENDING", "info": null}`,
		`{"status": "PROGRESS", "info": "working"}`,
	} {
		var st TaskStatus
		require.NoError(t, json.Unmarshal([]byte(raw), &st))
		assert.Equal(t, ProgressInfo{}, st.Progress(), raw)
	}
}

func TestTaskStatusFailureReason(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "result string", raw: `{"status": "FAILURE", "result": "Video has no subtitles."}`, want: "Video has no subtitles."},
		{name: "result error object", raw: `{"status": "FAILURE", "result": {"error": "quota exceeded"}}`, want: "quota exceeded"},
		{name: "info string", raw: `{"status": "FAILURE", "info": "boom"}`, want: "boom"},
		{name: "info exception", raw: `{"status": "FAILURE", "info": {"exc_type": "ValueError", "exc_message": "bad url"}}`, want: "bad url"},
		{name: "nothing", raw: `{"status": "FAILURE"}`, want: DefaultFailureReason},
		{name: "blank result", raw: `{"status": "FAILURE", "result": "   "}`, want: DefaultFailureReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st TaskStatus
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &st))
			assert.Equal(t, tt.want, st.FailureReason())
		})
	}
}
