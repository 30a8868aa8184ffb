package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditFileName is the audit log written under the data directory.
const auditFileName = "audit.jsonl"

// AuditEntry records one MCP tool invocation. It carries parameter
// metadata only, never paths or labels supplied by the client.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends AuditEntries to a JSONL file. It is safe for
// concurrent use, and a nil AuditLogger discards everything.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for append. It returns nil, after a
// warning on stderr, if the file cannot be opened.
func NewAuditLogger(dir string) *AuditLogger {
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, auditFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log writes entry as a single line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil || a.file == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.file.Write(data)
}

// Close closes the log file.
func (a *AuditLogger) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// Parameters whose values are logged verbatim. Everything in
// presenceOnlyParams is logged as "(set)"; anything else is dropped.
var (
	safeValueParams = map[string]bool{
		"rows":   true,
		"seed":   true,
		"format": true,
	}
	presenceOnlyParams = map[string]bool{
		"name":        true,
		"output_path": true,
		"dataset_id":  true,
	}
)

// sanitizeToolParams reduces tool arguments to loggable metadata. Unset
// values (nil or empty string) are skipped. "_param_count" counts the
// parameters that were set.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	set := 0
	for key, val := range params {
		val, ok := deref(val)
		if !ok {
			continue
		}
		set++
		switch {
		case safeValueParams[key]:
			result[key] = fmt.Sprintf("%v", val)
		case presenceOnlyParams[key]:
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", set)
	return result
}

// deref unwraps the optional argument pointers used in tool inputs and
// reports whether the value was set.
func deref(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case *int:
		if x == nil {
			return nil, false
		}
		return *x, true
	case *uint64:
		if x == nil {
			return nil, false
		}
		return *x, true
	case string:
		return x, x != ""
	default:
		return v, true
	}
}

// auditTool records a tool invocation that started at start.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]string) {
	entry := AuditEntry{
		Timestamp:  start,
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     "success",
		Params:     params,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.audit.Log(entry)
}
