// Package config provides configuration management for SRE Copilot.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Provider names for the hosted inference endpoint.
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds all configuration for the SRE Copilot server.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g., ":7080").
	ServerAddr string

	// DataDir is the directory for persistent data (SQLite DB, scenarios).
	DataDir string

	// DatabasePath is the full path to the SQLite database file.
	DatabasePath string

	// ScenarioDir is the directory holding YAML demo incident scenarios.
	ScenarioDir string

	// Provider selects the hosted inference endpoint:
	// "bedrock" (default), "anthropic", or "openai".
	Provider string

	// AWS credentials and region for Bedrock. Empty values fall back to the
	// AWS SDK's default credential chain.
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Bedrock model identifiers.
	BedrockModelID       string
	BedrockVisionModelID string
	BedrockEmbedModelID  string

	// Direct provider API keys (alternatives to Bedrock).
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// Slack notifications (optional).
	SlackBotToken string
	SlackChannel  string

	// Telegram notifications (optional).
	TelegramBotToken string
	TelegramChatID   int64

	// GitHub postmortem issues (optional).
	GitHubToken    string
	PostmortemRepo string // "owner/repo"

	// AnalysisTimeout bounds a full incident analysis run. Default: 10 minutes.
	AnalysisTimeout time.Duration

	// MaxSimilarIncidents is how many past incidents are recalled as prompt
	// context. 0 disables recall. Default: 3.
	MaxSimilarIncidents int

	// LogLevel is "debug", "info", "warn", or "error". Default: "info".
	LogLevel string

	// LogFormat is "text" or "json". Default: "text".
	LogFormat string
}

// Load creates a Config from the config file and environment variables.
// Values are resolved in order: environment variable > config file > default.
func Load() (*Config, error) {
	// Load config file (~/.srecopilot/config.env) into the environment.
	// Existing env vars take precedence (loadConfigFile only sets unset vars).
	loadConfigFile()

	dataDir := envOr("SRECOPILOT_DATA_DIR", defaultDataDir())
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cfg := &Config{
		ServerAddr:   envOr("SRECOPILOT_ADDR", ":7080"),
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "srecopilot.db"),
		ScenarioDir:  envOr("SRECOPILOT_SCENARIO_DIR", filepath.Join(dataDir, "scenarios")),

		Provider:           os.Getenv("SRECOPILOT_PROVIDER"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),

		BedrockModelID:       envOr("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),
		BedrockVisionModelID: envOr("BEDROCK_VISION_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0"),
		BedrockEmbedModelID:  envOr("BEDROCK_EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),

		SlackBotToken: os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:  os.Getenv("SLACK_CHANNEL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   envOrInt64("TELEGRAM_CHAT_ID", 0),

		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		PostmortemRepo: os.Getenv("SRECOPILOT_POSTMORTEM_REPO"),

		AnalysisTimeout:     envOrDuration("SRECOPILOT_ANALYSIS_TIMEOUT", 10*time.Minute),
		MaxSimilarIncidents: envOrInt("SRECOPILOT_MAX_SIMILAR", 3),

		LogLevel:  envOr("SRECOPILOT_LOG_LEVEL", "info"),
		LogFormat: envOr("SRECOPILOT_LOG_FORMAT", "text"),
	}

	if cfg.Provider == "" {
		cfg.Provider = detectProvider(cfg)
	}

	return cfg, nil
}

// detectProvider picks the inference provider from available credentials.
// Bedrock wins when AWS is configured, matching the hosted setup this
// application was built for.
func detectProvider(c *Config) string {
	switch {
	case c.AWSRegion != "":
		return ProviderBedrock
	case c.AnthropicAPIKey != "":
		return ProviderAnthropic
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI
	default:
		return ProviderBedrock
	}
}

// loadConfigFile reads ~/.srecopilot/config.env and sets any values that are
// not already present in the environment. This ensures env vars always win.
func loadConfigFile() {
	path := filepath.Join(defaultDataDir(), "config.env")
	f, err := os.Open(path)
	if err != nil {
		return // file doesn't exist or can't be read, that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]
		// Only set if not already in the environment.
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// Validate checks that the selected inference provider has credentials.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderBedrock:
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the bedrock provider")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown provider %q (want bedrock, anthropic, or openai)", c.Provider)
	}
	return nil
}

// SlackEnabled returns true if Slack notifications are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// TelegramEnabled returns true if Telegram notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// PostmortemEnabled returns true if GitHub postmortem issues are configured.
func (c *Config) PostmortemEnabled() bool {
	return c.GitHubToken != "" && c.PostmortemRepo != ""
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".srecopilot"
	}
	return filepath.Join(home, ".srecopilot")
}
