// Package config loads edumeet settings from defaults, a .env file,
// EDUMEET_ environment variables and command-line flags, in rising order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/edumeet/edumeet/internal/llm"
	"github.com/edumeet/edumeet/internal/progress"
	"github.com/edumeet/edumeet/internal/store"
)

// EnvPrefix is prepended to every key when read from the environment.
const EnvPrefix = "EDUMEET"

// Config holds the resolved settings.
type Config struct {
	DB             string        `mapstructure:"db"`
	User           string        `mapstructure:"user"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LLM            llm.Config    `mapstructure:"llm"`
}

// New returns a viper instance with defaults and environment binding.
// Nested keys map to env names with dots replaced by underscores, so
// llm.anthropic.api_key reads EDUMEET_LLM_ANTHROPIC_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", "")
	v.SetDefault("user", "")
	v.SetDefault("request_timeout", progress.DefaultTimeout)
	v.SetDefault("log_level", "warn")

	def := llm.DefaultConfig()
	v.SetDefault("llm.provider", def.Provider)
	v.SetDefault("llm.timeout", def.Timeout)
	for name, pc := range map[string]llm.ProviderConfig{
		llm.ProviderAnthropic:  def.Anthropic,
		llm.ProviderOpenAI:     def.OpenAI,
		llm.ProviderGemini:     def.Gemini,
		llm.ProviderOpenRouter: def.OpenRouter,
	} {
		v.SetDefault("llm."+name+".api_key", pc.APIKey)
		v.SetDefault("llm."+name+".model", pc.Model)
		v.SetDefault("llm."+name+".base_url", pc.BaseURL)
	}
	v.SetDefault("llm.retry.max_attempts", def.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", def.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", def.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", def.Retry.Multiplier)
	return v
}

// LoadDotEnv loads path into the process environment when it exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load resolves v into a Config. An empty db falls back to
// store.DefaultDBPath. When no provider was chosen explicitly and the
// default one has no key, the vendors' own key variables are probed.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DB == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DB = p
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = progress.DefaultTimeout
	}

	if cfg.LLM.Validate() != nil && os.Getenv(EnvPrefix+"_LLM_PROVIDER") == "" {
		if found, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = found
		}
	}
	return cfg, nil
}

// Level parses LogLevel, defaulting to warn for unknown values.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
