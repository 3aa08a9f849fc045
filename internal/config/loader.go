package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names consulted by Load.
const (
	EnvPrefix  = "INTERVIEWER_"
	EnvConfig  = "INTERVIEWER_CONFIG"
	EnvDotFile = "INTERVIEWER_ENV_FILE"
)

// bareKeys are honoured when the prefixed credential is unset.
var bareKeys = map[string]string{
	"google_api_key": "GOOGLE_API_KEY",
	"openai_api_key": "OPENAI_API_KEY",
	"tavily_api_key": "TAVILY_API_KEY",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if INTERVIEWER_CONFIG is set
//  3. env (prefix INTERVIEWER_), after loading .env into the process env
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// INTERVIEWER_OUTPUT_DIR -> output_dir. Underscores are kept to match
	// the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	applyBareKeys(k, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case c.GracePeriodMS < 0, c.AnalysisTimeoutMS < 0, c.SearchTimeoutMS < 0, c.MetricsRefreshMS < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	case c.AnalysisWorkers < 1:
		return fmt.Errorf("%w: analysis_workers must be positive", ErrInvalidConfig)
	case c.AnalysisQueueSize < 1:
		return fmt.Errorf("%w: analysis_queue_size must be positive", ErrInvalidConfig)
	}
	switch c.Provider() {
	case ProviderGemini, ProviderOpenAI, ProviderNone:
	default:
		return fmt.Errorf("%w: unsupported analysis_provider %q", ErrInvalidConfig, c.AnalysisProvider)
	}
	return nil
}

// loadDotEnv reads INTERVIEWER_ENV_FILE, or .env, without overriding
// variables already set. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(EnvDotFile)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

func applyBareKeys(k *koanf.Koanf, cfg *Config) {
	for key, name := range bareKeys {
		if k.String(key) != "" {
			continue
		}
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		switch key {
		case "google_api_key":
			cfg.GoogleAPIKey = v
		case "openai_api_key":
			cfg.OpenAIAPIKey = v
		case "tavily_api_key":
			cfg.TavilyAPIKey = v
		}
	}
}
