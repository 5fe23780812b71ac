package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	assert.NotNil(t, logger)
	assert.Implements(t, (*Logger)(nil), logger)

	// None of these should do anything, or panic.
	logger.Debug("debug %s", "msg")
	logger.Info("info %s", "msg")
	logger.Warn("warn %s", "msg")
	logger.Error("error %s", "msg")
}

func TestSetDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	noop := NewNoOpLogger()
	SetDefaultLogger(noop)
	assert.Equal(t, Logger(noop), GetDefaultLogger())
}
