// Package config loads and validates the bot's configuration from YAML
// with environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the bot.
type Config struct {
	Bluesky BlueskyConfig `yaml:"bluesky"`
	LLM     LLMConfig     `yaml:"llm"`
	Story   StoryConfig   `yaml:"story"`
	Journal JournalConfig `yaml:"journal"`
}

// BlueskyConfig configures the Bluesky connection.
type BlueskyConfig struct {
	Host        string `yaml:"host"`
	Handle      string `yaml:"handle"`
	AppPassword string `yaml:"app_password"`
	Timeout     string `yaml:"timeout"`
}

// ProviderConfig configures one LLM provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// LLMConfig configures the generation models and the judge.
type LLMConfig struct {
	Generators  []string       `yaml:"generators"`
	Judge       string         `yaml:"judge"`
	OpenAI      ProviderConfig `yaml:"openai"`
	Anthropic   ProviderConfig `yaml:"anthropic"`
	Gemini      ProviderConfig `yaml:"gemini"`
	CallTimeout string         `yaml:"call_timeout"`
	MaxTokens   int            `yaml:"max_tokens"`
	Temperature float32        `yaml:"temperature"`
}

// StoryConfig configures the narrative engine.
type StoryConfig struct {
	TemplatesPath string `yaml:"templates_path"`
	MonthMarker   string `yaml:"month_marker"`
	HistoryLimit  int    `yaml:"history_limit"`
}

// JournalConfig configures the engagement journal.
type JournalConfig struct {
	Dir             string  `yaml:"dir"`
	RewardThreshold float64 `yaml:"reward_threshold"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Bluesky: BlueskyConfig{
			Host:    "https://bsky.social",
			Timeout: "30s",
		},
		LLM: LLMConfig{
			Generators:  []string{"openai"},
			Judge:       "openai",
			CallTimeout: "90s",
			MaxTokens:   120,
			Temperature: 0.9,
		},
		Story: StoryConfig{
			TemplatesPath: "config/phase_prompts.yaml",
			MonthMarker:   "Welcome to a new month",
			HistoryLimit:  31,
		},
		Journal: JournalConfig{
			Dir:             "logs",
			RewardThreshold: 10,
		},
	}
}

// Load reads configuration from the given path. A missing file is fine;
// defaults plus environment overrides apply. A malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets credentials come from the environment instead of
// the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BLUESKY_HANDLE"); v != "" {
		c.Bluesky.Handle = v
	}
	if v := os.Getenv("BLUESKY_APP_PASSWORD"); v != "" {
		c.Bluesky.AppPassword = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
}

// Provider returns the config block for the named provider.
func (c *LLMConfig) Provider(name string) (ProviderConfig, error) {
	switch name {
	case "openai":
		return c.OpenAI, nil
	case "anthropic":
		return c.Anthropic, nil
	case "gemini":
		return c.Gemini, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown LLM provider: %q", name)
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Bluesky.Handle == "" {
		return fmt.Errorf("bluesky handle is required")
	}
	if c.Bluesky.AppPassword == "" {
		return fmt.Errorf("bluesky app password is required")
	}
	if _, err := parseTimeout(c.Bluesky.Timeout); err != nil {
		return fmt.Errorf("bluesky timeout: %w", err)
	}

	if len(c.LLM.Generators) == 0 {
		return fmt.Errorf("at least one generator provider is required")
	}
	for _, name := range c.LLM.Generators {
		provider, err := c.LLM.Provider(name)
		if err != nil {
			return err
		}
		if provider.APIKey == "" {
			return fmt.Errorf("generator %q has no API key", name)
		}
	}

	judge, err := c.LLM.Provider(c.LLM.Judge)
	if err != nil {
		return fmt.Errorf("judge: %w", err)
	}
	if judge.APIKey == "" {
		return fmt.Errorf("judge %q has no API key", c.LLM.Judge)
	}
	if _, err := parseTimeout(c.LLM.CallTimeout); err != nil {
		return fmt.Errorf("llm call timeout: %w", err)
	}

	if c.Story.TemplatesPath == "" {
		return fmt.Errorf("story templates path is required")
	}
	if c.Story.HistoryLimit <= 0 {
		return fmt.Errorf("story history limit must be positive")
	}

	return nil
}

// BlueskyTimeout returns the parsed Bluesky HTTP timeout.
func (c *Config) BlueskyTimeout() time.Duration {
	d, _ := parseTimeout(c.Bluesky.Timeout)
	return d
}

// CallTimeout returns the parsed per-model call timeout.
func (c *Config) CallTimeout() time.Duration {
	d, _ := parseTimeout(c.LLM.CallTimeout)
	return d
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("timeout is required")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
