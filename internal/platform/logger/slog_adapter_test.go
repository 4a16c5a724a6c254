package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestSlogAdapter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewSlogAdapter(&buf, "production", "info").With("component", "test")

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "query fetched", "key", "posts:list")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "query fetched", record["msg"])
	assert.Equal(t, "posts:list", record["key"])
	assert.Equal(t, "test", record["component"])
}

func TestSlogAdapter_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewSlogAdapter(&buf, "development", "debug")

	log.Debug(context.Background(), "transition", "to", "LIST")

	assert.Contains(t, buf.String(), "msg=transition")
	assert.Contains(t, buf.String(), "to=LIST")
}

func TestBootstrapLogger_QuietUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	quiet := logger.NewBootstrapLoggerTo(&buf, false)

	quiet.Info(context.Background(), "loaded .env file")
	assert.Empty(t, buf.String())

	quiet.Error(context.Background(), "configuration validation failed")
	assert.Contains(t, buf.String(), "ERROR: configuration validation failed")
}
