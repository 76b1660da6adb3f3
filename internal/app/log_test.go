package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCatalogHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "catalog ready",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tcatalog ready\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "folder not found",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tfolder not found\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelError,
			message: "xmp rewrite failed",
			attrs:   []slog.Attr{slog.String("path", "/photos/IMG_1.xmp"), slog.Int64("file_id", 42)},
			want:    "2024-06-15T14:30:45Z\tERROR\top-789\txmp rewrite failed\tpath=/photos/IMG_1.xmp\tfile_id=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &catalogHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestCatalogHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	base := &catalogHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h := base.WithAttrs([]slog.Attr{slog.String("component", "sidecar")}).WithGroup("xmp")
	if len(base.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(base.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "written", 0)
	r.AddAttrs(slog.String("result", "ok"))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"\ta=1", "\tcomponent=sidecar", "\txmp.result=ok"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestCatalogHandler_Enabled(t *testing.T) {
	all := &catalogHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !all.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = false, want true", level)
		}
	}

	warn := &catalogHandler{level: slog.LevelWarn}
	if warn.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(INFO) = true with WARN threshold")
	}
	if !warn.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(ERROR) = false with WARN threshold")
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-op", slog.LevelInfo)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "photocat.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "hidden") {
		t.Errorf("log contains debug record: %q", got)
	}
	if !strings.Contains(got, "\tINFO\ttest-op\tshown\tk=v\n") {
		t.Errorf("log = %q, want info record", got)
	}
}
