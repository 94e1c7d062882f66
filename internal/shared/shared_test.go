package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("hello", "scan_id", 42)

		if buf.Len() == 0 {
			t.Error("expected log output")
		}
		if got := buf.String(); !bytes.Contains(buf.Bytes(), []byte("hello")) {
			t.Errorf("expected message in output, got %q", got)
		}
	})

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		logger := NewLogger(nil)
		if logger == nil {
			t.Fatal("expected a logger")
		}
	})
}

func TestNewFileLogger(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "logs", "app.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}

	logger.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("written to file")) {
		t.Errorf("expected message in log file, got %q", data)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	child := WithLogger(logger, "component", "poller")

	child.Info("tick")

	if !bytes.Contains(buf.Bytes(), []byte("poller")) {
		t.Errorf("expected child logger fields in output, got %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	SetLogLevel(logger, log.ErrorLevel)

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info to be suppressed at error level, got %q", buf.String())
	}

	logger.Error("visible")
	if buf.Len() == 0 {
		t.Error("expected error output at error level")
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string length 36, got %d", len(a))
	}
}
