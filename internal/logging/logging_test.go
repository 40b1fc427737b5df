package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNewLoggerTo_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLogConfig()
	cfg.JSON = true
	cfg.Level = "warn"

	logger := NewLoggerTo(&buf, cfg)
	logger.Info().Msg("hidden")
	logger.Warn().Str("isin", "GB00BTHH2R79").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"isin":"GB00BTHH2R79"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestNewLoggerTo_File(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.Console = false
	cfg.File = true
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "bondmetrics.log")

	logger := NewLoggerTo(nil, cfg)
	logger.Info().Msg("to file")

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, zerolog.Nop(), FromContext(context.Background()))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), WithOperation(WithSource(logger, "DividendData"), "collect"))

	l := FromContext(ctx)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"source":"DividendData"`)
	assert.Contains(t, buf.String(), `"operation":"collect"`)
}
