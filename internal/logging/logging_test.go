package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	log, err := New("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = New("nope", true)
	assert.Error(t, err)
}
