package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumeet/edumeet/internal/llm"
	"github.com/edumeet/edumeet/internal/progress"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EDUMEET_DB", "EDUMEET_USER", "EDUMEET_REQUEST_TIMEOUT", "EDUMEET_LOG_LEVEL",
		"EDUMEET_LLM_PROVIDER", "EDUMEET_LLM_ANTHROPIC_API_KEY", "EDUMEET_LLM_OPENAI_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, progress.DefaultTimeout, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, "edumeet.db", filepath.Base(cfg.DB))
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "x.db")
	t.Setenv("EDUMEET_DB", dbPath)
	t.Setenv("EDUMEET_USER", "u-1")
	t.Setenv("EDUMEET_REQUEST_TIMEOUT", "5s")
	t.Setenv("EDUMEET_LOG_LEVEL", "debug")
	t.Setenv("EDUMEET_LLM_PROVIDER", "openai")
	t.Setenv("EDUMEET_LLM_OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.DB)
	assert.Equal(t, "u-1", cfg.User)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
}

func TestLoad_SetOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDUMEET_USER", "from-env")

	v := New()
	v.Set("user", "from-flag")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.User)
}

func TestLoad_DiscoversVendorKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.NoError(t, cfg.LLM.Validate())
}

func TestLoad_ExplicitProviderIsKept(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDUMEET_LLM_PROVIDER", "anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Error(t, cfg.LLM.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("EDUMEET_USER=dotenv-user\n"), 0o600))
	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("EDUMEET_USER") })

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "dotenv-user", cfg.User)
}

func TestLevel_Unknown(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "loud"}.Level())
	assert.Equal(t, slog.LevelError, Config{LogLevel: "error"}.Level())
}
