package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("OPENAI_CHAT_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 10, cfg.LLM.MaxToolRounds)
	assert.Equal(t, time.Minute, cfg.RateWindow())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "5000")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STRICT_DISCLOSURE", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LLM_TIMEOUT_MS", "1500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.True(t, cfg.Policy.StrictDisclosure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout())
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ava.yaml")
	content := `server:
  port: 4100
llm:
  api_key: ${AVA_TEST_KEY}
  model: gpt-4o
policy:
  strict_disclosure: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AVA_TEST_KEY", "from-env")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_CHAT_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.True(t, cfg.Policy.StrictDisclosure)
	// Untouched sections keep their defaults.
	assert.Equal(t, 20, cfg.Chat.RateLimit)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
