package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig_RespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg := DefaultConfig()
	assert.False(t, cfg.EnableColor)
	assert.Equal(t, "warn", cfg.Level)
}

func TestBuild_Level(t *testing.T) {
	l, err := Build(Config{Level: "error", Format: "json"})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestParseLevel_Unknown(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
