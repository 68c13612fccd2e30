package otel

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewSlogHandler_NilProviderDiscards(t *testing.T) {
	h := NewSlogHandler(nil, "test")
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard handler should report disabled")
	}
	// Logging through it must not panic.
	slog.New(h).Info("dropped", "k", "v")
}

func TestSeverityMapping(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelWarn, "WARN"},
		{slog.LevelError, "ERROR"},
	}
	for _, tt := range tests {
		sev := severity(tt.level)
		if sev == 0 {
			t.Errorf("severity(%v) is unset", tt.level)
		}
	}
	if severity(slog.LevelError) <= severity(slog.LevelInfo) {
		t.Error("error severity should rank above info")
	}
}

func TestConvertAttr_Kinds(t *testing.T) {
	for _, a := range []slog.Attr{
		slog.Bool("b", true),
		slog.Int("i", 7),
		slog.Float64("f", 1.5),
		slog.String("s", "x"),
		slog.Any("e", struct{ X int }{1}),
	} {
		kv := convertAttr(a)
		if kv.Key != a.Key {
			t.Errorf("convertAttr(%v) key = %q", a, kv.Key)
		}
	}
}
