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

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wanderwise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Orchestrator.ConcurrentAgents)
	assert.Equal(t, 3*time.Minute, cfg.Orchestrator.RequestTimeout)
	assert.Equal(t, "wanderwise-orchestrator", cfg.Tracing.ServiceName)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
llm:
  model: llama-3.1-8b-instant
  temperature: 0.2
orchestrator:
  concurrent_agents: false
  request_timeout: 45s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.False(t, cfg.Orchestrator.ConcurrentAgents)
	assert.Equal(t, 45*time.Second, cfg.Orchestrator.RequestTimeout)
}

func TestLoadSecretsFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("JWT_SECRET", "super-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gsk_test", cfg.LLM.APIKey)
	assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
llm:
  temperature: 5.0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestWatcherReloads(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, 8080, w.Current().Server.Port)

	reloaded := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, 8081, w.Current().Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload not observed")
	}
}

func TestWatcherKeepsConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0644))

	// The reload is debounced; give it time to run and fail.
	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, 8080, w.Current().Server.Port)
}
