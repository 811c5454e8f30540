package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Logger contract.
var _ Logger = (*NopLogger)(nil)

func TestNopLogger_AllMethodsSafe(t *testing.T) {
	logger := NewNopLogger()

	// Ни один вызов не должен паниковать или что-либо выводить.
	logger.Debug("debug", "key", "value")
	logger.Info("info")
	logger.Warn("warn", "odd-args")
	logger.Error("error", "err", assert.AnError)
}

func TestNopLogger_WithReturnsSelf(t *testing.T) {
	logger := NewNopLogger()

	child := logger.With("trace_id", "ignored")

	assert.Same(t, logger, child, "no-op логгер не создаёт новые объекты")
}
