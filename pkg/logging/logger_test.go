package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetFlags(0)
	l.SetLevel(level)
	return l, &buf
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug allowed at debug", LevelDebug, LevelDebug, true},
		{"info blocked at warn", LevelWarn, LevelInfo, false},
		{"warn allowed at warn", LevelWarn, LevelWarn, true},
		{"error allowed at warn", LevelWarn, LevelError, true},
		{"warn blocked at error", LevelError, LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(tt.minLevel)

			switch tt.logLevel {
			case LevelDebug:
				logger.Debug("test message")
			case LevelInfo:
				logger.Info("test message")
			case LevelWarn:
				logger.Warn("test message")
			case LevelError:
				logger.Error("test message")
			}

			if tt.shouldLog {
				assert.Contains(t, buf.String(), tt.logLevel.String()+": test message")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLoggerWithSharesLevel(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn)
	child := logger.With("goal", "Daily Meditation")

	child.Info("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelDebug)
	child.Debug("event recorded", "points", 10, "index", 1)

	assert.Equal(t, "DEBUG: event recorded | goal=\"Daily Meditation\" index=1 points=10\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "plain", formatValue("plain"))
	assert.Equal(t, `"two words"`, formatValue("two words"))
	assert.Equal(t, `""`, formatValue(""))
	assert.Equal(t, `"boom"`, formatValue(errors.New("boom")))
	assert.Equal(t, "42", formatValue(42))
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "Error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing to see")
}
