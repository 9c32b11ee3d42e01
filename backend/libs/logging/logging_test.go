package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zapcore.WarnLevel, parseLevel(""))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eda.log")

	logger, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("stage finished", zap.String("stage", "load"), zap.Int("rows", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"stage finished"`)
	assert.Contains(t, string(data), `"rows":3`)
}
