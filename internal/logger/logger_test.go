package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "json to stdout",
			config:  Config{Level: "debug", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "text to stderr",
			config:  Config{Level: "info", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "loud", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "debug", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && log == nil {
				t.Error("New() returned nil logger without error")
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dejiryu.log")

	log, err := New(Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() with file output failed: %v", err)
	}

	log.Info("file sink works")
}

func TestLogger_ErrorAttachesField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := bufferLogger(buf)

	log.Error("tick failed", errors.New("channel gone"), Field{Key: "job", Value: "ai_news"})

	output := buf.String()
	if !strings.Contains(output, "tick failed") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "channel gone") {
		t.Errorf("expected error text in output, got: %s", output)
	}
	if !strings.Contains(output, "ai_news") {
		t.Errorf("expected field value in output, got: %s", output)
	}
}

func TestLogger_CtxVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	log := bufferLogger(buf)
	ctx := context.Background()

	log.DebugCtx(ctx, "debug line")
	log.InfoCtx(ctx, "info line")
	log.WarnCtx(ctx, "warn line")
	log.ErrorCtx(ctx, "error line", errors.New("boom"))

	output := buf.String()
	for _, want := range []string{"debug line", "info line", "warn line", "error line"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	log := bufferLogger(buf).With(Field{Key: "component", Value: "scheduler"})

	log.Info("job registered")

	if !strings.Contains(buf.String(), "scheduler") {
		t.Errorf("expected bound field in output, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "info", wantDebug: false, wantInfo: true},
		{level: "warn", wantDebug: false, wantInfo: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			level, _ := parseLevel(tt.level)
			log := &Logger{slog: slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))}

			log.Debug("debug message")
			log.Info("info message")

			output := buf.String()
			if got := strings.Contains(output, "debug message"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(output, "info message"); got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestLogger_JSONOutputIsValid(t *testing.T) {
	buf := &bytes.Buffer{}
	log := bufferLogger(buf)

	log.Info("structured", Field{Key: "week", Value: "2025-W10"})

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "structured" {
		t.Errorf("msg = %v, want structured", record["msg"])
	}
	if record["week"] != "2025-W10" {
		t.Errorf("week = %v, want 2025-W10", record["week"])
	}
}

func bufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{slog: slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}
