package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/garyellow/faq-linebot-go/internal/ctxutil"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %s", buf.String())
	}

	log.Warn("shown")
	entry := decodeLine(t, &buf)
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info("test message", "count", 3)

	entry := decodeLine(t, &buf)
	for _, key := range []string{"timestamp", "level", "message"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("missing key %q in %v", key, entry)
		}
	}
	if _, ok := entry["msg"]; ok {
		t.Error("slog default key msg should be renamed")
	}
	if entry["level"] != "info" || entry["message"] != "test message" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v", entry["count"])
	}
}

func TestLogger_WithHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithModule("match").
		WithRequestID("req-1").
		WithError(errors.New("boom")).
		WithFields(map[string]any{"strategy": "keyword"}).
		WithField("index", 4).
		Debug("matched")

	entry := decodeLine(t, &buf)
	want := map[string]any{
		"module":     "match",
		"request_id": "req-1",
		"error":      "boom",
		"strategy":   "keyword",
		"index":      float64(4),
		"level":      "debug",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithChatID(context.Background(), "C123")
	ctx = ctxutil.WithUserID(ctx, "U456")
	log.InfoContext(ctx, "processing")

	entry := decodeLine(t, &buf)
	if entry["chat_id"] != "C123" || entry["user_id"] != "U456" {
		t.Errorf("context values missing: %v", entry)
	}
}

func TestLogger_DroppedWithoutRemote(t *testing.T) {
	if got := New("info").Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0", got)
	}
	var nilLogger *Logger
	if got := nilLogger.Dropped(); got != 0 {
		t.Errorf("nil Dropped() = %d, want 0", got)
	}
}

func TestLogger_ShutdownWithoutRemote(t *testing.T) {
	if err := New("info").Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	var nilLogger *Logger
	if err := nilLogger.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown() error = %v", err)
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.WithModule("x").Error("nothing")
	if log.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled")
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	records []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Message)
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestAsyncHandler_FlushesOnShutdown(t *testing.T) {
	rec := &recordingHandler{}
	async := NewAsyncHandler(rec, AsyncOptions{BufferSize: 16, FlushTimeout: time.Second})
	log := slog.New(async)

	ctx, cancel := context.WithCancel(context.Background())
	for i := range 5 {
		log.InfoContext(ctx, "record", "i", i)
	}
	cancel()

	if err := async.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if len(rec.records) != 5 {
		t.Errorf("records = %d, want 5", len(rec.records))
	}

	// Records after shutdown are ignored.
	log.Info("late")
	if len(rec.records) != 5 {
		t.Errorf("records after shutdown = %d, want 5", len(rec.records))
	}
	if err := async.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

type blockingHandler struct {
	recordingHandler
	release chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, r slog.Record) error {
	<-h.release
	return h.recordingHandler.Handle(ctx, r)
}

func TestAsyncHandler_DropsWhenFull(t *testing.T) {
	h := &blockingHandler{release: make(chan struct{})}
	async := NewAsyncHandler(h, AsyncOptions{BufferSize: 1})
	log := slog.New(async)

	for range 10 {
		log.Info("burst")
	}
	close(h.release)
	if err := async.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	// At most one record in flight plus one buffered.
	if got := async.Dropped(); got < 8 {
		t.Errorf("Dropped() = %d, want >= 8", got)
	}
}
