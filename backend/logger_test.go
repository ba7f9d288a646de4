package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	for level, want := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	} {
		for _, format := range []string{"console", "json"} {
			logger, err := NewLogger(level, format)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(want), "%s/%s should enable %v", level, format, want)
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1), "%s/%s should not enable %v", level, format, want-1)
			}
		}
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, orNop(nil))
}
