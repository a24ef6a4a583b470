package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsLoggerForBothVerbosityLevels(t *testing.T) {
	quiet, err := New(false)
	require.NoError(t, err)
	assert.NotNil(t, quiet)

	verbose, err := New(true)
	require.NoError(t, err)
	assert.NotNil(t, verbose)
}

func TestNop_DoesNotPanic(t *testing.T) {
	logger := Nop()
	assert.NotPanics(t, func() {
		logger.Infow("test", "key", "value")
	})
}
