package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestSetupStderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(DefaultConfig())
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, logger)
}

func TestSetupFileLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Info("indexing started", slog.String("collection", "main"))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"collection":"main"`)
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	// Force the size over the 1MB threshold, then write again to rotate.
	big := strings.Repeat("x", 1024*1024)
	_, err = w.Write([]byte(big))
	require.NoError(t, err)
	_, err = w.Write([]byte("after rotation\n"))
	require.NoError(t, err)

	_, err = os.Stat(path + ".1")
	require.NoError(t, err, "rotated file should exist")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after rotation\n", string(data))
}
