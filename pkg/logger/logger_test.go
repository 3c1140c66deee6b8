package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	Init("debug")
	require.NotNil(t, Log)
	Log.Debug("smoke")
}

func TestInitWithConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "pathfinder.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	})
	require.NotNil(t, Log)

	Log.Info("written to file", "key", "value")

	// Директория создаётся инициализацией
	_, err := os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestHelpers(t *testing.T) {
	Init("info")

	assert.NotNil(t, WithRequestID("req-1"))
	assert.NotNil(t, WithComponent("flow"))

	// Хелперы не должны паниковать
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
}
