// Package logging provides the shared structured logger for git-tend.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Logger is the public logger instance accessible from all packages.
// It discards everything until Initialize is called.
var Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Initialize sets up the logger based on the debug flag and an optional
// debug file. Without either, all logs are discarded so normal CLI output
// stays clean. Every run gets a short run_id so interleaved watch-mode
// passes can be told apart in a log file.
func Initialize(debug bool, debugFile string) error {
	if os.Getenv("GIT_TEND_DEBUG") == "1" {
		debug = true
	}
	if envFile := os.Getenv("GIT_TEND_DEBUG_FILE"); envFile != "" && debugFile == "" {
		debugFile = envFile
	}

	if !debug && debugFile == "" {
		Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	var w io.Writer = os.Stderr
	if debugFile != "" {
		if err := os.MkdirAll(filepath.Dir(debugFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(debugFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open debug log file: %w", err)
		}
		w = f
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	Logger = slog.New(handler).With("run_id", uuid.NewString()[:8])
	return nil
}
