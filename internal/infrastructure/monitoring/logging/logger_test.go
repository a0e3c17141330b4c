package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/turtacn/pipeline-engine/pkg/errors"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Debug("d", String("k", "v"))
	l.Info("i", Int("n", 3), Bool("ok", true))
	l.Warn("w", Float64("ratio", 0.5), Duration("took", time.Second))
	l.Error("e", Err(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
	assert.Equal(t, int64(3), entries[1].ContextMap()["n"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)
	l.Info("dropped")
	l.Warn("kept")
	assert.Equal(t, 1, logs.Len())
}

func TestZapLogger_WithContext(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).Info("hello")
	l.WithContext(context.Background()).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()[KeyRequestID])
	assert.NotContains(t, entries[1].ContextMap(), KeyRequestID)
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
}

func TestZapLogger_WithError(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)

	l.WithError(apperrors.New(apperrors.ErrCodeRateNotFound, "missing")).Warn("convert failed")
	l.WithError(errors.New("plain")).Warn("other")
	l.WithError(nil).Warn("none")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "FX_001", entries[0].ContextMap()[KeyErrorCode])
	assert.NotContains(t, entries[1].ContextMap(), KeyErrorCode)
	assert.Empty(t, entries[2].ContextMap())
}

func TestZapLogger_Named(t *testing.T) {
	l, logs := newObservedLogger(zapcore.InfoLevel)
	l.Named("engine").Named("http").Info("x")
	assert.Equal(t, "engine.http", logs.All()[0].LoggerName)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("a", "b")))
	assert.Equal(t, l, l.Named("x"))
	assert.Equal(t, l, l.WithContext(context.Background()))
	assert.Equal(t, l, l.WithError(errors.New("x")))
	assert.NoError(t, l.Sync())
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	l, _ := newObservedLogger(zapcore.InfoLevel)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestCodeField(t *testing.T) {
	assert.Equal(t, "FEE_001", Code(apperrors.New(apperrors.ErrCodeNoFeeStructure, "x")).Value)
	assert.Equal(t, "UNKNOWN", Code(errors.New("x")).Value)
}

func TestTimed(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)
	done := Timed(l, "calibrate")
	done(String("result", "skipped"))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "calibrate", ctx[KeyOperation])
	assert.Equal(t, "skipped", ctx["result"])
	assert.Contains(t, ctx, "elapsed")
}
