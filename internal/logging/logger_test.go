package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hmans/todograph/internal/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNewTextDefault(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "info", Format: "text"})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todograph.log")

	logger, err := New(config.LogConfig{Level: "info", Format: "text", File: path})
	require.NoError(t, err)

	out, ok := logger.Out.(*lumberjack.Logger)
	require.True(t, ok, "output should be a lumberjack logger, got %T", logger.Out)
	assert.Equal(t, path, out.Filename)
	t.Cleanup(func() { _ = out.Close() })
}

func TestPanicLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	p := &PanicLogger{Log: logger}
	p.LogPanic(context.Background(), "boom")

	line := buf.String()
	assert.True(t, strings.Contains(line, "resolver panic"), "log line %q", line)
	assert.True(t, strings.Contains(line, "boom"), "log line %q", line)
}
