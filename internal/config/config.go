// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and the environment on top.
// - Durations are carried as milliseconds and exposed through accessors.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"strings"
	"time"
)

// Supported analysis providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// OutputDir receives transcript and analysis artifacts.
	OutputDir string `koanf:"output_dir"`

	// GracePeriodMS is the delay between conclusion and session shutdown.
	GracePeriodMS int `koanf:"grace_period_ms"`

	// ConclusionMessage overrides the closing line spoken to the candidate.
	ConclusionMessage string `koanf:"conclusion_message"`

	AnalysisProvider  string `koanf:"analysis_provider"`
	AnalysisModel     string `koanf:"analysis_model"`
	AnalysisEndpoint  string `koanf:"analysis_endpoint"`
	AnalysisTimeoutMS int    `koanf:"analysis_timeout_ms"`
	AnalysisWorkers   int    `koanf:"analysis_workers"`
	AnalysisQueueSize int    `koanf:"analysis_queue_size"`

	SearchEndpoint  string `koanf:"search_endpoint"`
	SearchTimeoutMS int    `koanf:"search_timeout_ms"`

	// DedupeSize bounds how many utterance ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	MetricsEnabled   bool `koanf:"metrics_enabled"`
	MetricsRefreshMS int  `koanf:"metrics_refresh_ms"`

	// Credentials. Empty values disable the matching capability.
	GoogleAPIKey string `koanf:"google_api_key"`
	OpenAIAPIKey string `koanf:"openai_api_key"`
	TavilyAPIKey string `koanf:"tavily_api_key"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		OutputDir:         ".",
		GracePeriodMS:     3000,
		AnalysisProvider:  ProviderGemini,
		AnalysisTimeoutMS: 60_000,
		AnalysisWorkers:   2,
		AnalysisQueueSize: 64,
		SearchTimeoutMS:   10_000,
		DedupeSize:        10_000,
		MetricsEnabled:    true,
		MetricsRefreshMS:  10_000,
	}
}

// GracePeriod returns GracePeriodMS as a duration.
func (c *Config) GracePeriod() time.Duration { return ms(c.GracePeriodMS) }

// AnalysisTimeout returns AnalysisTimeoutMS as a duration.
func (c *Config) AnalysisTimeout() time.Duration { return ms(c.AnalysisTimeoutMS) }

// SearchTimeout returns SearchTimeoutMS as a duration.
func (c *Config) SearchTimeout() time.Duration { return ms(c.SearchTimeoutMS) }

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration { return ms(c.MetricsRefreshMS) }

// AnalysisAPIKey returns the credential for the configured provider.
func (c *Config) AnalysisAPIKey() string {
	switch c.Provider() {
	case ProviderGemini:
		return c.GoogleAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// AnalysisEnabled reports whether a provider is configured.
func (c *Config) AnalysisEnabled() bool {
	return c.Provider() != ProviderNone
}

// SearchEnabled reports whether a web search credential is present.
func (c *Config) SearchEnabled() bool {
	return strings.TrimSpace(c.TavilyAPIKey) != ""
}

// Provider returns the normalized analysis provider name.
func (c *Config) Provider() string {
	return strings.ToLower(strings.TrimSpace(c.AnalysisProvider))
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
