package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clkhoo5211/aphorism/internal/domain"
)

const (
	ProviderNone       = "none"
	ProviderOpenRouter = "openrouter"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	HTTPAddr          string
	LogLevel          slog.Level
	LLMProvider       string
	LLMModel          string
	LLMFallbackModels []string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	LLMTimeout        time.Duration

	SessionStore     string
	DataDir          string
	SessionTTL       time.Duration
	ReshuffleBelow   int
	DefaultDeckStyle domain.DeckStyle
}

// fileConfig is the YAML shape of CONFIG_FILE. Every field is optional.
type fileConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
	LLM      struct {
		Provider       string   `yaml:"provider"`
		Model          string   `yaml:"model"`
		FallbackModels []string `yaml:"fallback_models"`
		BaseURL        string   `yaml:"base_url"`
		Timeout        string   `yaml:"timeout"`
	} `yaml:"llm"`
	Sessions struct {
		Store          string `yaml:"store"`
		DataDir        string `yaml:"data_dir"`
		TTL            string `yaml:"ttl"`
		ReshuffleBelow int    `yaml:"reshuffle_below"`
	} `yaml:"sessions"`
	DefaultDeckStyle string `yaml:"default_deck_style"`
}

func defaults() fileConfig {
	var f fileConfig
	f.HTTPAddr = ":8080"
	f.LogLevel = "info"
	f.LLM.Provider = ProviderNone
	f.LLM.Model = "qwen/qwen3-4b:free"
	f.LLM.BaseURL = "https://openrouter.ai/api/v1"
	f.LLM.Timeout = "10s"
	f.Sessions.Store = StoreSQLite
	f.Sessions.DataDir = defaultDataDir()
	f.Sessions.TTL = "24h"
	f.Sessions.ReshuffleBelow = 10
	f.DefaultDeckStyle = string(domain.DefaultStyle)
	return f
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables.
func Load() (Config, error) {
	f := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read CONFIG_FILE: %w", err)
		}
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
		}
	}

	overlayEnv(&f)
	return f.resolve()
}

func overlayEnv(f *fileConfig) {
	setString(&f.HTTPAddr, "HTTP_ADDR")
	setString(&f.LogLevel, "LOG_LEVEL")
	setString(&f.LLM.Provider, "LLM_PROVIDER")
	setString(&f.LLM.Model, "LLM_MODEL")
	setString(&f.LLM.BaseURL, "OPENROUTER_BASE_URL")
	setString(&f.LLM.Timeout, "LLM_TIMEOUT")
	if v := os.Getenv("LLM_FALLBACK_MODELS"); v != "" {
		f.LLM.FallbackModels = parseFallbackModels(v)
	}
	setString(&f.Sessions.Store, "SESSION_STORE")
	setString(&f.Sessions.DataDir, "DATA_DIR")
	setString(&f.Sessions.TTL, "SESSION_TTL")
	setString(&f.DefaultDeckStyle, "DEFAULT_DECK_STYLE")
}

func (f fileConfig) resolve() (Config, error) {
	c := Config{
		HTTPAddr:          f.HTTPAddr,
		LLMProvider:       strings.ToLower(f.LLM.Provider),
		LLMModel:          f.LLM.Model,
		LLMFallbackModels: f.LLM.FallbackModels,
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: f.LLM.BaseURL,
		SessionStore:      strings.ToLower(f.Sessions.Store),
		DataDir:           f.Sessions.DataDir,
		ReshuffleBelow:    f.Sessions.ReshuffleBelow,
	}

	var errs []error

	level, err := parseLogLevel(f.LogLevel)
	errs = append(errs, err)
	c.LogLevel = level

	c.LLMTimeout, err = parseDuration("LLM_TIMEOUT", f.LLM.Timeout)
	errs = append(errs, err)

	c.SessionTTL, err = parseDuration("SESSION_TTL", f.Sessions.TTL)
	errs = append(errs, err)

	if v := os.Getenv("RESHUFFLE_BELOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid RESHUFFLE_BELOW %q: %w", v, err))
		}
		c.ReshuffleBelow = n
	}
	if c.ReshuffleBelow < 1 {
		errs = append(errs, fmt.Errorf("RESHUFFLE_BELOW must be at least 1, got %d", c.ReshuffleBelow))
	}

	c.DefaultDeckStyle, err = domain.ParseDeckStyle(f.DefaultDeckStyle)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_DECK_STYLE %q: %w", f.DefaultDeckStyle, err))
	}

	switch c.LLMProvider {
	case ProviderNone:
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			errs = append(errs, errors.New("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.SessionStore {
	case StoreMemory:
	case StoreSQLite:
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required when SESSION_STORE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid SESSION_STORE %q", c.SessionStore))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, s)
	}
	return d, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aphorism"
	}
	return filepath.Join(home, ".aphorism")
}

func parseFallbackModels(s string) []string {
	var models []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			models = append(models, m)
		}
	}
	return models
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
