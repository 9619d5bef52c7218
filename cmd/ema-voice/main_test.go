package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

func TestSetupLoggingExportsOtelRecordsToFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "ema-voice.log")
	closeLog, err := setupLogging(path)
	if err != nil {
		t.Fatalf("failed to set up logging: %v", err)
	}

	otelslog.NewLogger("github.com/koscakluka/ema-voice/core").Warn("recognition restart failed")
	slog.Info("orchestration started")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	for _, want := range []string{"recognition restart failed", "orchestration started"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in log file, got %s", want, data)
		}
	}
}
