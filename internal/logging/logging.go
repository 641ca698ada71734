// Package logging configures structured logging for the indexing engine.
// Progress events and pipeline warnings go through log/slog; this package
// owns handler setup and log file rotation.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
	// FilePath is the path to the log file. Empty means stderr only.
	FilePath string `yaml:"file_path"`
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int `yaml:"max_files"`
	// WriteToStderr also mirrors file logs to stderr.
	WriteToStderr bool `yaml:"write_to_stderr"`
}

// DefaultConfig returns stderr-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup initializes logging and returns the logger plus a cleanup function
// that closes the log file, if one was opened.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)

	if cfg.FilePath == "" {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(handler), func() {}, nil
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	cleanup := func() {
		_ = writer.Close()
	}
	return slog.New(handler), cleanup, nil
}

// SetupDefault installs a logger with default configuration as the slog
// default and returns the cleanup function.
func SetupDefault() (func(), error) {
	logger, cleanup, err := Setup(DefaultConfig())
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
