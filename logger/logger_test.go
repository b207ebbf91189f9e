package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{VerbosityTrace, zapcore.DebugLevel},
		{VerbosityAll, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestShouldLogHelpers(t *testing.T) {
	assert.False(t, ShouldLogTrace(VerbosityDebug))
	assert.True(t, ShouldLogTrace(VerbosityTrace))
	assert.False(t, ShouldLogAll(VerbosityTrace))
	assert.True(t, ShouldLogAll(VerbosityAll))
}

func TestInitializeDoesNotPanicBeforeOrAfter(t *testing.T) {
	// Package init installs a no-op logger; logging before Initialize is safe
	Infow("pre-init message", "key", "value")

	require.NoError(t, Initialize(false, VerbosityDebug))
	require.NotNil(t, Logger)
	Debugw("post-init message", "key", "value")

	require.NoError(t, Initialize(true, VerbosityUser))
	assert.True(t, JSONOutput)
	Cleanup()
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Debug (-vv)", LevelName(2))
	assert.Equal(t, "All (-vvvv)", LevelName(9))
}
