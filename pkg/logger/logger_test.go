package logger

import (
	"os"
	"path/filepath"
	"testing"

	"feedreach/pkg/config"
)

func TestNewWithValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			log, err := New(&config.LoggingConfig{Level: level})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if log == nil {
				t.Fatal("Expected a logger")
			}
		})
	}
}

func TestNewWithInvalidLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "chatty"}); err == nil {
		t.Error("Expected an error for an unknown level")
	}
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedreach.log")
	log, err := New(&config.LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.WithField("key", "value").Info("hello")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected the log file to exist: %v", err)
	}
}

func TestWithFieldsChaining(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	derived := log.WithFields(map[string]interface{}{
		"category": "cat1",
		"count":    3,
	}).WithField("query", "q1")

	// Chained loggers must not mutate the parent
	derived.Debug("derived message")
	log.Debug("parent message")
}

func TestGetLoggerLazyDefault(t *testing.T) {
	globalLogger = nil
	if GetLogger() == nil {
		t.Fatal("Expected a lazily created default logger")
	}
}
