package colexlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNopDiscardsEverything(t *testing.T) {
	log := Nop()
	require.NotNil(t, log)
	log.Info("discarded")
}

func TestNewWritesToRotatedFileAndCloses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colex.log")

	log, closer, err := New(Config{Level: zapcore.InfoLevel, Path: path, Mode: FileModeRotate})
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, closer.Close())
}

func TestNewAppendModeOpensExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colex.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	log, closer, err := New(Config{Level: zapcore.InfoLevel, Path: path, Mode: FileModeAppend})
	require.NoError(t, err)
	log.Info("appended")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "existing")
}

func TestNewStderrSinkClosesWithoutError(t *testing.T) {
	log, closer, err := New(Config{Level: zapcore.InfoLevel, Path: "stderr"})
	require.NoError(t, err)
	log.Info("to stderr")
	require.NoError(t, closer.Close())
}
