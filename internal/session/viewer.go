package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SessionFile represents a session log file on disk.
type SessionFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListSessions finds .jsonl session log files in dir.
func ListSessions(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), "-session.jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, SessionFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from a session log file.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable poll timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " SESSION TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		ts := formatDuration(ev.Timestamp.Sub(start))

		switch ev.Type {
		case EventSessionStart:
			command := jsonString(ev.Data["command"])
			baseURL := jsonString(ev.Data["base_url"])
			lang := jsonString(ev.Data["lang"])
			fmt.Fprintf(w, "[%s] 🚀 Session started  command=%s  backend=%s  lang=%s\n", ts, command, baseURL, lang)

		case EventPollStart:
			taskID := jsonString(ev.Data["task_id"])
			interval := jsonNumber(ev.Data["interval_ms"])
			fmt.Fprintf(w, "[%s] ▶  Polling task %s every %dms\n", ts, taskID, interval)

		case EventPollProgress:
			fmt.Fprintf(w, "[%s]    %s\n", ts, jsonString(ev.Data["message"]))

		case EventStaleResponse:
			fmt.Fprintf(w, "[%s]    ↷ Dropped stale response for task %s\n", ts, jsonString(ev.Data["task_id"]))

		case EventPollComplete:
			taskID := jsonString(ev.Data["task_id"])
			state := jsonString(ev.Data["state"])
			dur := jsonNumber(ev.Data["duration_ms"])
			icon := "✓"
			if state != "succeeded" {
				icon = "✗"
			}
			line := fmt.Sprintf("[%s] %s  Task %s %s (%dms)", ts, icon, taskID, state, dur)
			if reason := jsonString(ev.Data["reason"]); reason != "" {
				line += ": " + reason
			}
			fmt.Fprintln(w, line)

		case EventSelection:
			fmt.Fprintf(w, "[%s] ☑  Submitted %d claims for %s\n", ts, jsonNumber(ev.Data["claim_count"]), jsonString(ev.Data["analysis_id"]))

		case EventError:
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, jsonString(ev.Data["message"]))

		case EventSessionEnd:
			id := jsonString(ev.Data["analysis_id"])
			outcome := jsonString(ev.Data["outcome"])
			dur := jsonNumber(ev.Data["duration_ms"])
			fmt.Fprintf(w, "[%s] 🏁 Session complete  %s  analysis=%s  (%dms)\n", ts, outcome, id, dur)

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}

func jsonString(v any) string {
	s, _ := v.(string) //nolint:errcheck
	return s
}
