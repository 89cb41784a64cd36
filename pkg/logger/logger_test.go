package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"WARN", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(Config{Level: tt.level, Format: "json"}, &buf)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			recs := decodeLines(t, &buf)
			if len(recs) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(recs), len(tt.want))
			}
			for i, rec := range recs {
				if rec["level"] != tt.want[i] {
					t.Errorf("record %d level = %v, want %s", i, rec["level"], tt.want[i])
				}
			}
		})
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(Config{Level: "info", Format: "text"}, &buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("text output = %q", buf.String())
	}
}

func TestWithContextAddsCorrelationIDs(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(Config{Level: "info"}, &buf)

	ctx := WithRequestID(WithRunID(context.Background(), "run-1"), "req-9")
	if RunID(ctx) != "run-1" || RequestID(ctx) != "req-9" {
		t.Fatalf("ids = %q / %q", RunID(ctx), RequestID(ctx))
	}
	WithContext(ctx, base).Info("tagged")
	WithContext(context.Background(), base).Info("plain")

	recs := decodeLines(t, &buf)
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0]["run_id"] != "run-1" || recs[0]["request_id"] != "req-9" {
		t.Errorf("tagged record = %v", recs[0])
	}
	if _, ok := recs[1]["run_id"]; ok {
		t.Errorf("plain record carries run_id: %v", recs[1])
	}
}

func TestInitInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		globalLogger = nil
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Init(Config{Level: "info", Output: "file", FilePath: path, MaxSize: 1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Get() != slog.Default() {
		t.Fatal("Init did not install the global logger")
	}
}
