package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.1:8b", cfg.LLM.Model)
	assert.Equal(t, 0.75, cfg.LLM.Temperature)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "PlayStation 5", cfg.Room.DefaultTopic)
	assert.Equal(t, 3, cfg.Room.ObserveRounds)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  model: qwen3:14b
  temperature: 0.5
redis:
  addr: cache.local:6379
  session_ttl: 12h
room:
  default_topic: Nike Air Max
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qwen3:14b", cfg.LLM.Model)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, "cache.local:6379", cfg.Redis.Addr)
	assert.Equal(t, 12*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, "Nike Air Max", cfg.Room.DefaultTopic)
	// Untouched sections keep defaults.
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "deepseek-r1:7b")
	t.Setenv("REDIS_ADDR", "10.0.0.5:6379")
	t.Setenv("REDIS_SESSION_TTL", "86400") // bare seconds

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "deepseek-r1:7b", cfg.LLM.Model)
	assert.Equal(t, "10.0.0.5:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
}

func TestTimeoutFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "garbage"
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())

	cfg.Redis.SessionTTL = ""
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Room.ObserveRounds = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LLM.Model = ""
	assert.Error(t, cfg.Validate())
}
