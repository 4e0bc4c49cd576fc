// Package testutil provides test helpers shared by the pipeline packages.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is a captured log line with its attributes flattened, including
// those bound with Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is a slog.Handler that records everything it is given.
// Handlers derived with WithAttrs share the parent's record buffer.
type CaptureHandler struct {
	store *recordStore
	attrs []slog.Attr
	group string
}

type recordStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewCaptureLogger returns a logger backed by a fresh CaptureHandler.
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{store: &recordStore{}}
	return slog.New(h), h
}

func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[h.key(a.Key)] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = a.Value.Resolve().Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()
	return nil
}

func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &CaptureHandler{store: h.store, attrs: merged, group: h.group}
}

func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &CaptureHandler{store: h.store, attrs: h.attrs, group: h.key(name)}
}

func (h *CaptureHandler) key(k string) string {
	if h.group == "" || strings.HasPrefix(k, h.group+".") {
		return k
	}
	return h.group + "." + k
}

// Records returns a copy of everything captured so far.
func (h *CaptureHandler) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]LogRecord, len(h.store.records))
	copy(out, h.store.records)
	return out
}

// Find returns the records at level whose message contains msg.
func (h *CaptureHandler) Find(level slog.Level, msg string) []LogRecord {
	var found []LogRecord
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			found = append(found, r)
		}
	}
	return found
}

// AssertLogged fails the test unless a record at level contains msg, and
// returns the first match.
func AssertLogged(t testing.TB, h *CaptureHandler, level slog.Level, msg string) LogRecord {
	t.Helper()
	found := h.Find(level, msg)
	if len(found) == 0 {
		t.Errorf("no %s log containing %q", level, msg)
		for _, r := range h.Records() {
			t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
		}
		return LogRecord{}
	}
	return found[0]
}

// AssertNoErrors fails the test if anything was logged at error level.
func AssertNoErrors(t testing.TB, h *CaptureHandler) {
	t.Helper()
	for _, r := range h.Records() {
		if r.Level >= slog.LevelError {
			t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
		}
	}
}
