package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"songcatalog/pkg/logger"
)

// captureStdout redirects os.Stdout for the duration of fn and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	t.Cleanup(func() {
		os.Stdout = orig
		logger.Log = zap.NewNop()
		logger.Sugar = logger.Log.Sugar()
	})

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestBadConfigFileIsReported(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("log_level = ["), 0o644))

	out := captureStdout(t, func() {
		err := newApp().Run(context.Background(), []string{"songcatalog", "--config", bad, "seed"})
		require.Error(t, err)
		reportError(err)
	})

	assert.Contains(t, out, "failed to load config")
	assert.Contains(t, out, "ERROR")
}

func TestLoadConfigAppliesLevel(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STORE_DRIVER", "")
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"error\"\n[store]\ndriver = \"memory\"\n"), 0o644))

	captureStdout(t, func() {
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Store.Driver)
		assert.False(t, logger.Log.Core().Enabled(zap.InfoLevel))
	})
}
