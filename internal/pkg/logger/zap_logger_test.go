package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger_AcceptsNilDetails(t *testing.T) {
	var l ILogger = NewNopLogger()
	assert.NotPanics(t, func() {
		l.Debug("TEST", "debug", nil)
		l.Info("TEST", "info", nil)
		l.Warn("TEST", "warn", map[string]interface{}{"k": "v"})
		l.Error("TEST", "error", map[string]interface{}{"error": "boom"})
	})
}

func TestFileLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.log")
	l := NewFileLogger(path)

	l.Info("SESSION_STORE", "session evicted", map[string]interface{}{"chat_id": "u-c-abc"})
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"module":"SESSION_STORE"`)
	assert.Contains(t, string(raw), `"message":"session evicted"`)
	assert.Contains(t, string(raw), `"chat_id":"u-c-abc"`)
}
