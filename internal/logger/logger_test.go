package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %v", log.GetLevel())
	}
}

func TestNewWithLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NewWithLevel(tt.input).GetLevel(); got != tt.want {
				t.Errorf("NewWithLevel(%q) level = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	output := buf.String()
	if output == "" {
		t.Error("Expected log output, got empty string")
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", output)
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	testLog := NewWithWriter(buf)
	ctx := WithContext(context.Background(), testLog)

	retrievedLog := FromContext(ctx)
	retrievedLog.Info().Str("tool", "parse_statement").Msg("test")

	if !strings.Contains(buf.String(), "parse_statement") {
		t.Errorf("Expected log output from retrieved logger, got: %s", buf.String())
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	logWithFields := WithFields(log, map[string]interface{}{
		"source_id": "file-123",
		"rows":      4,
	})
	logWithFields.Info().Msg("appended")

	output := buf.String()
	if !strings.Contains(output, "source_id") || !strings.Contains(output, "file-123") {
		t.Errorf("Expected output to contain source_id field, got: %s", output)
	}
	if !strings.Contains(output, `"rows":4`) {
		t.Errorf("Expected output to contain rows field, got: %s", output)
	}
}

func TestStdLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	std := StdLogger(NewWithWriter(buf))

	std.Printf("stdio error: %s", "broken pipe")

	if !strings.Contains(buf.String(), "stdio error: broken pipe") {
		t.Errorf("Expected adapted output, got: %s", buf.String())
	}
}
