package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSONRecordsToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.WriteToStderr = false

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("run_started", slog.String("corpus_id", "c1"))
	cleanup()

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_started")
	assert.Contains(t, string(data), "c1")
}

func TestSetup_EmptyFilePathLogsToStderrOnly(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, logger)
}

func TestDebugConfig_RaisesLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := DebugConfig(dir)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, filepath.Join(dir, "run.log"), cfg.FilePath)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}
