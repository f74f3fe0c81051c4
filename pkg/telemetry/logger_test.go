package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  LoggingConfig
		want zerolog.Level
	}{
		{"default is info", LoggingConfig{}, zerolog.InfoLevel},
		{"trace", LoggingConfig{Level: "trace"}, zerolog.TraceLevel},
		{"debug", LoggingConfig{Level: "debug"}, zerolog.DebugLevel},
		{"warn", LoggingConfig{Level: "warn"}, zerolog.WarnLevel},
		{"error", LoggingConfig{Level: "error"}, zerolog.ErrorLevel},
		{"unknown falls back to info", LoggingConfig{Level: "loud"}, zerolog.InfoLevel},
		{"console format", LoggingConfig{Level: "debug", Format: "console"}, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("level = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	logger, err := NewLogger(LoggingConfig{Level: "info", Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info().Str("component", "engine").Msg("state applied")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(b), "state applied") {
		t.Errorf("log file does not contain the record: %q", b)
	}
}

func TestNewLoggerRejectsUnwritableOutput(t *testing.T) {
	_, err := NewLogger(LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "engine.log")})
	if err == nil {
		t.Fatal("NewLogger() accepted an unwritable output path")
	}
}
