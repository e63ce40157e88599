package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trwlexporter/internal/structures"
)

func loggerConfig(dir string) *structures.Config {
	return &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "debug",
			Mode:  0644,
			Dir:   dir,
		},
	}
}

func TestLogProvider_WritesPerTypeFiles(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogProvider(loggerConfig(dir))
	require.NoError(t, err)

	logger.Infof(TypeApp, "app started on port %d", 3000)
	logger.Warnf(TypePoll, "poll failed for account %s", "alice")
	logger.Close()

	appLog, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(appLog), "app started on port 3000")
	assert.NotContains(t, string(appLog), "poll failed")

	pollLog, err := os.ReadFile(filepath.Join(dir, "poll.log"))
	require.NoError(t, err)
	assert.Contains(t, string(pollLog), "poll failed for account alice")
}

func TestLogProvider_LevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	conf := loggerConfig(dir)
	conf.Logger.Level = "warn"

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)

	logger.Debugf(TypeApp, "hidden detail")
	logger.Errorf(TypeApp, "visible failure")
	logger.Close()

	appLog, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(appLog), "hidden detail")
	assert.Contains(t, string(appLog), "visible failure")
}

func TestLogProvider_InvalidLevel(t *testing.T) {
	conf := loggerConfig(t.TempDir())
	conf.Logger.Level = "loud"

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}

func TestLogProvider_UnwritableDir(t *testing.T) {
	conf := loggerConfig(filepath.Join(t.TempDir(), "does", "not", "exist"))

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}
