package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(body), 0644))
	return root
}

func TestDefaultsWithoutFile(t *testing.T) {
	conf, _, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "5050", conf.Server.Port)
	assert.Equal(t, 30*time.Minute, conf.Server.SessionTTL)
	assert.Equal(t, time.Minute, conf.Server.SweepInterval)
	assert.Equal(t, uint(5), conf.Server.RateLimit)
	assert.Equal(t, "logs", conf.Logging.Directory)
	assert.True(t, conf.Logging.Console)
	assert.Equal(t, 1500*time.Millisecond, conf.Play.AnalysisDelay)
	assert.Equal(t, 640.0, conf.Play.AreaWidth)
	assert.Equal(t, "reports", conf.Report.OutputDir)
}

func TestFileAndEnvironment(t *testing.T) {
	root := writeConfig(t, `
server:
  port: "8080"
  session_ttl: 10m
logging:
  directory: /tmp/ns-logs
  console: false
play:
  analysis_delay: 0s
`)
	t.Setenv("NEUROSCREEN_SERVER_PORT", "9090")
	t.Setenv("NEUROSCREEN_REPORT_OUTPUT_DIR", "/tmp/out")

	conf, _, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "9090", conf.Server.Port)
	assert.Equal(t, 10*time.Minute, conf.Server.SessionTTL)
	assert.Equal(t, "/tmp/ns-logs", conf.Logging.Directory)
	assert.False(t, conf.Logging.Console)
	assert.Zero(t, conf.Play.AnalysisDelay)
	assert.Equal(t, "/tmp/out", conf.Report.OutputDir)
}

func TestInvalidValues(t *testing.T) {
	root := writeConfig(t, "server:\n  session_ttl: -1s\n")
	_, _, err := Load(root)
	assert.ErrorContains(t, err, "session_ttl")

	root = writeConfig(t, "play:\n  area_width: 0\n")
	_, _, err = Load(root)
	assert.ErrorContains(t, err, "play area")

	root = writeConfig(t, "server: [unterminated\n")
	_, _, err = Load(root)
	assert.Error(t, err)
}

func TestWatchReloadsEditedFile(t *testing.T) {
	root := writeConfig(t, "server:\n  session_ttl: 30m\n")
	conf, v, err := Load(root)
	require.NoError(t, err)
	Watch(conf, v, zap.NewNop())
	require.Equal(t, 30*time.Minute, Get().Server.SessionTTL)

	path := filepath.Join(root, "config", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  session_ttl: -5m\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("server:\n  session_ttl: 2m\n"), 0644))
	assert.Eventually(t, func() bool {
		return Get().Server.SessionTTL == 2*time.Minute
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchWithoutFile(t *testing.T) {
	conf, v, err := Load(t.TempDir())
	require.NoError(t, err)
	Watch(conf, v, zap.NewNop())
	assert.Same(t, conf, Get())
}
