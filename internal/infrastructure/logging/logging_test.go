package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(Options{Service: "quest"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", zap.String("quest_id", "q1"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info must be dropped outside debug: %s", out)
	}
	if !strings.Contains(out, `"quest_id":"q1"`) || !strings.Contains(out, `"service":"quest"`) {
		t.Errorf("expected structured warn entry, got %s", out)
	}

	buf.Reset()
	debug := newLogger(Options{Debug: true}, &buf)
	debug.Debug("probe")
	_ = debug.Sync()
	if !strings.Contains(buf.String(), "probe") {
		t.Errorf("debug entries expected in debug mode, got %s", buf.String())
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mission.log")
	var buf bytes.Buffer
	logger := newLogger(Options{Debug: true, File: path}, &buf)
	logger.Error("reward dispatch failed", zap.String("user_id", "u1"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"user_id":"u1"`) {
		t.Errorf("file sink should hold JSON entries, got %s", data)
	}
	if !strings.Contains(buf.String(), "reward dispatch failed") {
		t.Errorf("stdout should receive the same entry")
	}
}
