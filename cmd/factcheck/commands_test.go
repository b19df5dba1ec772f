package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxradov/propacondom-app/internal/client"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportJSON = `{"id": "abc_en", "status": "COMPLETED", "video_title": "Test Video",
	"source_url": "https://youtu.be/abc",
	"verdict_counts": {"True": 1},
	"detailed_results": [{"hash": "h1", "claim": "Sky is blue", "verdict": "True",
		"explanation": "Rayleigh scattering.", "confidence_percentage": 95,
		"sources": ["https://www.nasa.gov/sky"]}],
	"summary_data": {"overall_verdict": "Accurate", "overall_assessment": "Holds up.", "key_points": ["One point"]},
	"average_confidence": 95, "confirmed_credibility": 100}`

const selectionJSON = `{"status": "PENDING_SELECTION", "id": "abc_en", "claims_for_selection": [
	{"hash": "h1", "text": "Sky is blue", "is_cached": false},
	{"hash": "h2", "text": "Grass is red", "is_cached": false}]}`

// fakeBackend emulates the fact-check service.
type fakeBackend struct {
	t *testing.T

	mu        sync.Mutex
	analyze   int
	statuses  map[string][]string
	reports   map[string]string
	submitted []models.ClaimRef
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{
		t:        t,
		statuses: map[string][]string{},
		reports:  map[string]string{"abc_en": reportJSON},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.analyze++
		fb.mu.Unlock()
		fmt.Fprint(w, `{"task_id": "t-1"}`)
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		queue := fb.statuses[r.PathValue("id")]
		if len(queue) == 0 {
			http.Error(w, `{"error": "unknown task"}`, http.StatusNotFound)
			return
		}
		body := queue[0]
		if len(queue) > 1 {
			fb.statuses[r.PathValue("id")] = queue[1:]
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("POST /api/fact_check_selected", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AnalysisID string            `json:"analysis_id"`
			Claims     []models.ClaimRef `json:"selected_claims_data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fb.mu.Lock()
		fb.submitted = append(fb.submitted, req.Claims...)
		fb.reports[req.AnalysisID] = reportJSON
		fb.mu.Unlock()
		fmt.Fprint(w, `{"task_id": "t-2"}`)
	})
	mux.HandleFunc("GET /api/report/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		body, ok := fb.reports[r.PathValue("id")]
		fb.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": "Report not found"}`)
			return
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("GET /api/get_recent_analyses", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("last_timestamp") != "" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"id": "abc_en", "video_title": "Test Video", "input_type": "url", "confirmed_credibility": 100, "average_confidence": 95, "created_at": "2024-05-01T10:00:00"},
			{"id": "zzz_en", "video_title": "Title Not Found", "created_at": "2024-04-30T10:00:00"},
			{"id": "txt_en", "video_title": "Pasted text", "input_type": "text", "created_at": "2024-04-29T10:00:00"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) queue(taskID string, bodies ...string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.statuses[taskID] = append(fb.statuses[taskID], bodies...)
}

// testConfig writes a config file pointing at srv with a private cache and
// session log directory.
func testConfig(t *testing.T, srv *httptest.Server) (path, dir string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "factcheck.yaml")
	content := fmt.Sprintf(`server:
  base_url: %s
cache:
  dir: %s
session_log:
  enabled: true
  dir: %s
`, srv.URL, filepath.Join(dir, "cache"), filepath.Join(dir, "sessions"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path, dir
}

func run(t *testing.T, configPath string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", configPath, "--poll-interval", "1ms"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCommand_Report(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1",
		`{"status": "PROGRESS", "info": {"status_message": "Extracting claims"}}`,
		`{"status": "SUCCESS", "result": `+reportJSON+`}`)

	out, errOut, err := run(t, cfg, "check", "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Contains(t, errOut, "Extracting claims")
	assert.Contains(t, out, "Test Video")
	assert.Contains(t, out, "Average confidence: 95% | Confirmed credibility: 100%")
	assert.Contains(t, out, "Accurate")
	assert.Contains(t, out, "▸ Show Detailed Analysis (1 claims)")
	assert.NotContains(t, out, "Rayleigh")
}

func TestCheckCommand_Details(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "SUCCESS", "result": `+reportJSON+`}`)

	out, _, err := run(t, cfg, "check", "--details", "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Contains(t, out, "▾ Hide Detailed Analysis")
	assert.Contains(t, out, "1. [True] Sky is blue")
	assert.Contains(t, out, "Rayleigh scattering.")
	assert.Contains(t, out, "[1] nasa.gov <https://www.nasa.gov/sky>")
}

func TestCheckCommand_SelectionWithClaimsFlag(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "SUCCESS", "result": `+selectionJSON+`}`)
	fb.queue("t-2", `{"status": "SUCCESS", "result": {"id": "abc_en"}}`)

	out, _, err := run(t, cfg, "check", "--claims", "2", "--format", "markdown", "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, []models.ClaimRef{{Hash: "h2", Text: "Grass is red"}}, fb.submitted)
	assert.Contains(t, out, "# Test Video")
}

func TestCheckCommand_SelectionByHash(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "SUCCESS", "result": `+selectionJSON+`}`)
	fb.queue("t-2", `{"status": "SUCCESS", "result": {"id": "abc_en"}}`)

	_, _, err := run(t, cfg, "check", "--claims", "h1,h2", "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Len(t, fb.submitted, 2)
}

func TestCheckCommand_SelectionRequiresInput(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "SUCCESS", "result": `+selectionJSON+`}`)

	_, _, err := run(t, cfg, "check", "https://youtu.be/abc")
	require.ErrorIs(t, err, workflow.ErrSelectionRequired)
	assert.Contains(t, err.Error(), "--claims")
	assert.Equal(t, ExitError, exitCode(err))
}

func TestCheckCommand_TaskFailure(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "FAILURE", "result": "Video is unavailable."}`)

	_, _, err := run(t, cfg, "check", "https://youtu.be/gone")
	require.Error(t, err)
	assert.Equal(t, "Video is unavailable.", err.Error())
	assert.Equal(t, ExitTaskFailed, exitCode(err))
}

func TestCheckCommand_EmptyInputMakesNoRequest(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)

	_, _, err := run(t, cfg, "check", "   ")
	var inputErr *client.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, ExitError, exitCode(err))
	assert.Zero(t, fb.analyze)
}

func TestReportCommand(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.reports["def_en"] = strings.Replace(reportJSON, "Test Video", "Second Video", 1)

	out, _, err := run(t, cfg, "report", "abc_en", "def_en")
	require.NoError(t, err)
	first := strings.Index(out, "Test Video")
	second := strings.Index(out, "Second Video")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first, "reports keep argument order")
}

func TestReportCommand_JSON(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)

	out, _, err := run(t, cfg, "report", "--format", "json", "abc_en")
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "Test Video", v["title"])
}

func TestReportCommand_NotFound(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)

	_, _, err := run(t, cfg, "report", "missing")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestReportCommand_MalformedReport(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.reports["bad_en"] = `{"id": "bad_en", "status": "COMPLETED"}`

	out, _, err := run(t, cfg, "report", "bad_en")
	require.Error(t, err)
	assert.Equal(t, "Error: Received incorrect report data format.", err.Error())
	assert.Empty(t, out)
}

func TestSelectCommand_PendingSelection(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.reports["abc_en"] = selectionJSON
	fb.queue("t-2", `{"status": "SUCCESS", "result": {"id": "abc_en"}}`)

	out, _, err := run(t, cfg, "select", "--claims", "1", "abc_en")
	require.NoError(t, err)
	assert.Equal(t, []models.ClaimRef{{Hash: "h1", Text: "Sky is blue"}}, fb.submitted)
	assert.Contains(t, out, "Test Video")
}

func TestStatusCommand(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "PROGRESS", "info": {"status_message": "Fetching transcript"}}`)

	out, _, err := run(t, cfg, "status", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Task t-1: PROGRESS\nFetching transcript\n", out)
}

func TestStatusCommand_Wait(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1",
		`{"status": "PENDING"}`,
		`{"status": "SUCCESS", "result": `+selectionJSON+`}`)

	out, _, err := run(t, cfg, "status", "--wait", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Task t-1: SUCCESS, analysis abc_en is waiting for claim selection (2 candidates)\n", out)
}

func TestStatusCommand_Failure(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)
	fb.queue("t-1", `{"status": "FAILURE", "result": null}`)

	_, _, err := run(t, cfg, "status", "t-1")
	require.Error(t, err)
	assert.Equal(t, models.DefaultFailureReason, err.Error())
	assert.Equal(t, ExitTaskFailed, exitCode(err))
}

func TestFeedCommand(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)

	out, _, err := run(t, cfg, "feed")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Video")
	assert.Contains(t, out, "Pasted text")
	assert.NotContains(t, out, "Title Not Found")

	out, _, err = run(t, cfg, "feed", "--json", "--limit", "1")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, srv.URL+"/static/url-placeholder.png", items[0]["thumbnail"])
}

func TestLanguagesCommand(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg, _ := testConfig(t, srv)

	out, _, err := run(t, cfg, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "de   Deutsch\n")
	assert.Equal(t, 11, strings.Count(out, "\n"))

	out, _, err = run(t, cfg, "languages", "--match", "de_DE.UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "de (Deutsch)\n", out)
}

func TestSessionsCommands(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, dir := testConfig(t, srv)
	fb.queue("t-1", `{"status": "SUCCESS", "result": `+reportJSON+`}`)

	_, _, err := run(t, cfg, "check", "https://youtu.be/abc")
	require.NoError(t, err)

	sessions := filepath.Join(dir, "sessions")
	out, _, err := run(t, cfg, "sessions", "list", "--dir", sessions)
	require.NoError(t, err)
	assert.Contains(t, out, "-session.jsonl")

	entries, err := os.ReadDir(sessions)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out, _, err = run(t, cfg, "sessions", "view", filepath.Join(sessions, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, out, "Session started")
	assert.Contains(t, out, "command=check")
	assert.Contains(t, out, "Polling task t-1")
}

func TestCacheServesReportAndClears(t *testing.T) {
	fb, srv := newFakeBackend(t)
	cfg, dir := testConfig(t, srv)

	_, _, err := run(t, cfg, "report", "abc_en")
	require.NoError(t, err)

	fb.mu.Lock()
	delete(fb.reports, "abc_en")
	fb.mu.Unlock()

	out, _, err := run(t, cfg, "report", "abc_en")
	require.NoError(t, err, "second open is served from the cache")
	assert.Contains(t, out, "Test Video")

	_, _, err = run(t, cfg, "report", "--no-cache", "abc_en")
	assert.ErrorIs(t, err, client.ErrNotFound)

	out, _, err = run(t, cfg, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")
	_, statErr := os.Stat(filepath.Join(dir, "cache"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSetup_CacheMaxAgeFromConfig(t *testing.T) {
	_, srv := newFakeBackend(t)
	cfg, dir := testConfig(t, srv)

	opts := &globalOptions{configPath: cfg}
	e, err := opts.setup()
	require.NoError(t, err)
	defer e.Close() //nolint:errcheck
	assert.Equal(t, 30*24*time.Hour, e.cache.MaxAge())

	custom := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("cache:\n  max_age_days: 2\n"), 0o644))
	opts.configPath = custom
	e2, err := opts.setup()
	require.NoError(t, err)
	defer e2.Close() //nolint:errcheck
	assert.Equal(t, 48*time.Hour, e2.cache.MaxAge())
}
