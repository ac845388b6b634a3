package logger

import (
	"os"
	"path/filepath"
	"testing"
)

// TestInitLogger ensures that the logger initializes properly.
func TestInitLogger(t *testing.T) {
	ResetLogger()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "tally.log")
	SetLogPath(logPath)

	InitLogger()

	if log == nil {
		t.Fatal("Expected logger to be initialized, but got nil")
	}

	log.Info("Test log message")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestGetLogger ensures that GetLogger returns a non-nil instance.
func TestGetLogger(t *testing.T) {
	ResetLogger()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "tally.log")
	SetLogPath(logPath)

	logger := GetLogger()
	if logger == nil {
		t.Fatal("Expected non-nil logger instance, but got nil")
	}

	logger.Info("Logger retrieved successfully")
	Sync()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestResetLogger ensures a reset allows re-initialization at a new path.
func TestResetLogger(t *testing.T) {
	ResetLogger()

	first := filepath.Join(t.TempDir(), "first.log")
	SetLogPath(first)
	GetLogger().Info("first")

	ResetLogger()

	second := filepath.Join(t.TempDir(), "second.log")
	SetLogPath(second)
	GetLogger().Info("second")
	Sync()

	if _, err := os.Stat(second); os.IsNotExist(err) {
		t.Fatal("Second log file was not created after reset")
	}
}
