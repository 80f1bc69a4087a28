package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/kpiagent/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: ollama
  base_url: http://ollama.internal:11434
  name: llama3.1:8b
  temperature: 0.1
engine:
  max_iterations: 5
  history_window: 20
  decide_timeout: 45s
  tool_timeout: 10s
session:
  path: /var/lib/kpiagent/sessions.db
log_level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Model.BaseURL)
	assert.Equal(t, "llama3.1:8b", cfg.Model.Name)
	assert.InDelta(t, 0.1, cfg.Model.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.Engine.MaxIterations)
	assert.Equal(t, 20, cfg.Engine.HistoryWindow)
	assert.Equal(t, 45*time.Second, cfg.Engine.DecideTimeout.AsDuration())
	assert.Equal(t, 10*time.Second, cfg.Engine.ToolTimeout.AsDuration())
	assert.Equal(t, "/var/lib/kpiagent/sessions.db", cfg.Session.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
model:
  name: mistral:7b
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mistral:7b", cfg.Model.Name)
	assert.Equal(t, "ollama", cfg.Model.Provider, "unset keys keep their defaults")
	assert.Equal(t, 8, cfg.Engine.MaxIterations)
	assert.Equal(t, 10, cfg.Engine.HistoryWindow)
	assert.Equal(t, 2*time.Minute, cfg.Engine.DecideTimeout.AsDuration())
	assert.Equal(t, 30*time.Second, cfg.Engine.ToolTimeout.AsDuration())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://10.0.0.5:11434")
	path := writeConfig(t, `
model:
  base_url: ${OLLAMA_HOST}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:11434", cfg.Model.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
engine:
  decide_timeout: not-a-duration
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}
