package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[LogLevel]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  zapcore.InfoLevel,
		"":         zapcore.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), string(in))
	}
}

func TestInitLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jukebox.log")

	require.NoError(t, InitLogger(Config{Level: DebugLevel, OutputPath: path, MaxSize: 1}))
	Debug("catalog loaded", String("file", "songs.json"), Int("songs", 2))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"catalog loaded"`)
	assert.Contains(t, string(data), `"songs":2`)
	assert.Contains(t, string(data), `"level":"debug"`)

	// later calls keep the first configuration
	require.NoError(t, InitLogger(Config{Level: ErrorLevel}))
	Debug("still at debug")
	Sync()

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"still at debug"`)
}
