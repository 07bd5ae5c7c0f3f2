package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerLevels(t *testing.T) {
	dir := t.TempDir()

	l, err := NewFileLogger("test", dir)
	require.NoError(t, err)
	l.SetLevels(ERROR+1, DEBUG)

	l.Trace("скрыто %d", 1)
	l.Debug("отладка %d", 2)
	l.Error("ошибка %s", "x")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "скрыто")
	assert.Contains(t, content, "[DEBUG] [test] отладка 2")
	assert.Contains(t, content, "[ERROR] [test] ошибка x")
	assert.Equal(t, 2, strings.Count(content, "\n"))
}

func TestLoggerManager(t *testing.T) {
	lm := NewLoggerManager("")

	a := lm.MustGetLogger("extent")
	b := lm.MustGetLogger("extent")
	assert.Same(t, a, b)

	lm.MustGetLogger("session")
	assert.Equal(t, []string{"extent", "session"}, lm.ListComponents())

	require.NoError(t, lm.SetLogLevel("extent", WARN, WARN))
	assert.Error(t, lm.SetLogLevel("missing", WARN, WARN))

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestNopLoggerIsSilent(t *testing.T) {
	var nilLogger *Logger
	assert.NotPanics(t, func() {
		NewNopLogger().Error("ничего")
		nilLogger.Info("ничего")
	})
}
