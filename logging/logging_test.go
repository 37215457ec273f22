package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAndNewDevelopmentBuildUsableLoggers(t *testing.T) {
	prod, err := New()
	require.NoError(t, err)
	assert.NotPanics(t, func() { prod.Info("hello") })

	dev, err := NewDevelopment()
	require.NoError(t, err)
	assert.NotPanics(t, func() { dev.Info("hello") })
}

func TestNewFileLoggerWritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faaskeeper.log")

	log := NewFileLogger(FileConfig{Path: path})
	log.Info("session started", zap.Int("port", 4242))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data[:firstLine(data)], &entry))
	assert.Equal(t, "session started", entry["msg"])
}

func firstLine(data []byte) int {
	for i, b := range data {
		if b == '\n' {
			return i
		}
	}
	return len(data)
}
