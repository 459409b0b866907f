package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithConfig(t *testing.T) {
	l, err := NewLoggerWithConfig("debug", "json")
	require.NoError(t, err)
	l.Debug("[test] %d", 1)

	_, err = NewLoggerWithConfig("loud", "console")
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("[test] %s", "ignored")
	l.Warn("[test] %s", "ignored")
	l.Error("[test] %s", "ignored")
	l.Sync()
}
