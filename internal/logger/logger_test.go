package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mudra.log")
	var console bytes.Buffer

	l, closeFn, err := New(Options{File: path, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	l.Named("engine").Info("gesture transition", zap.String("gesture", "middle_finger"))
	l.Debug("only on console")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "gesture transition", entry["message"])
	assert.Equal(t, "engine", entry["logger"])
	assert.Equal(t, "middle_finger", entry["gesture"])
	assert.Contains(t, entry, "timestamp")

	assert.Contains(t, console.String(), "only on console")
}

func TestNew_ProductionConsoleIsJSON(t *testing.T) {
	var console bytes.Buffer

	l, closeFn, err := New(Options{Production: true, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	l.Debug("dropped")
	l.Warn("kept")
	require.NoError(t, closeFn())

	out := strings.TrimSpace(console.String())
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "WARN", entry["level"])
}

func TestNew_Level(t *testing.T) {
	var console bytes.Buffer
	lvl := zapcore.ErrorLevel

	l, _, err := New(Options{Level: &lvl, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	l.Warn("quiet")
	assert.Empty(t, console.String())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
