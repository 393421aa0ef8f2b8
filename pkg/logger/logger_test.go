package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitConfiguresGlobalLogger(t *testing.T) {
	t.Cleanup(func() {
		globalLogger = zap.NewNop()
	})

	require.NoError(t, Init("debug", "json"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("not-a-level", "console"))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestLoggingHelpersEmitEntries(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	restore := Replace(zap.New(core))
	t.Cleanup(restore)

	Info("info message", zap.String("k", "v"))
	Error("error message")
	Warn("warn message")
	Debug("debug message")

	require.Equal(t, 4, recorded.Len())
	want := []string{"info message", "error message", "warn message", "debug message"}
	for i, entry := range recorded.All() {
		require.Equal(t, want[i], entry.Message)
	}
	require.Equal(t, "v", recorded.All()[0].ContextMap()["k"])
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	t.Cleanup(restore)

	WithModule("store.complaints").Info("module test")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "store.complaints", entries[0].ContextMap()["module"])
}

func TestReplaceRestoresPrevious(t *testing.T) {
	original := Logger()
	restore := Replace(nil)
	require.NotSame(t, original, Logger())
	restore()
	require.Same(t, original, Logger())
}
