// Package logging provides leveled logging and a run log for tipgen.
//
// Operational output goes to a leveled slog.Logger on stderr. When the level
// is debug or trace, each generation run is also appended to
// <data dir>/runs.jsonl as one JSON object per line.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/tipgen/internal/constants"
)

// LevelTrace is a custom slog level below Debug. Per-column sampling
// summaries are logged at this level.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug" or "trace" (case-insensitive) to a
// slog.Level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RunEvent describes one completed generation run.
type RunEvent struct {
	Time      time.Time `json:"time"`
	Source    string    `json:"source"`
	DatasetID string    `json:"dataset_id,omitempty"`
	Rows      int       `json:"rows"`
	Seed      *uint64   `json:"seed,omitempty"`
	Format    string    `json:"format,omitempty"`
	Output    string    `json:"output,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
}

// RunLogger appends RunEvents to a JSONL file. It is safe for concurrent
// use, and every method is a no-op on a nil receiver.
type RunLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewRunLogger opens dir/runs.jsonl for append. It returns nil at info level
// or if the file cannot be opened.
func NewRunLogger(dir string, level string) *RunLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, constants.RunLogFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &RunLogger{file: f}
}

// Log writes ev as a single line. A zero Time is set to now.
func (rl *RunLogger) Log(ev RunEvent) {
	if rl == nil || rl.file == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')

	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, _ = rl.file.Write(data)
}

// Close closes the underlying file.
func (rl *RunLogger) Close() {
	if rl == nil || rl.file == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.file.Close()
	rl.file = nil
}
