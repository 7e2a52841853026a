package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestHelpersAreNilSafe(t *testing.T) {
	Debug(nil, "debug")
	Info(nil, "info")
	Warn(nil, "warn")
	Error(nil, "error", errors.New("boom"))
}

func TestErrorAppendsErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Error(logger, "failed", errors.New("boom"), FieldGameID, "g1")
	Debug(logger, "detail")

	out := buf.String()
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "game_id=g1") {
		t.Fatalf("expected error and game id fields, got %q", out)
	}
	if !strings.Contains(out, "msg=detail") {
		t.Fatalf("expected debug entry, got %q", out)
	}
}
