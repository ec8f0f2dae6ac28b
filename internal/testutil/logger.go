package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// NopLogger returns a logger that discards all output
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecorder keeps the JSON records written by a RecordingLogger
type LogRecorder struct {
	mu    sync.Mutex
	lines [][]byte
}

// RecordingLogger returns a debug level logger and the recorder it writes to
func RecordingLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}

// Write stores one record. The JSON handler emits a single Write per record
func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, bytes.Clone(p))
	return len(p), nil
}

// Records decodes everything logged so far
func (r *LogRecorder) Records() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]map[string]any, 0, len(r.lines))
	for _, line := range r.lines {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// Find returns the first record with msg, or nil
func (r *LogRecorder) Find(msg string) map[string]any {
	for _, rec := range r.Records() {
		if rec[slog.MessageKey] == msg {
			return rec
		}
	}
	return nil
}
