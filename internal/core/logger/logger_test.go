package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildWithRotateWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "campus.log")
	l, flush := Build(Options{Level: "info", Rotate: FileRotate{Enable: true, Filename: file, MaxSizeMB: 1}})
	l.Info("hello", zap.String("k", "v"))
	l.Debug("dropped")
	flush()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.NotContains(t, string(b), "dropped")
}

func TestToWriterTrimsNewline(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := ToWriter(zap.New(core), zapcore.WarnLevel)

	n, err := w.Write([]byte("[GIN-debug] route\n"))
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[GIN-debug] route", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	l, _ := New("nope", true)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
