package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/config"
)

// clearConfigEnv unsets all environment variables that Load reads so each
// sub-test starts from a clean slate.  t.Setenv already restores values
// after the test, but we also need to make sure variables from the outer
// process don't leak into "defaults" tests.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SRECOPILOT_ADDR",
		"SRECOPILOT_DATA_DIR",
		"SRECOPILOT_SCENARIO_DIR",
		"SRECOPILOT_PROVIDER",
		"SRECOPILOT_POSTMORTEM_REPO",
		"SRECOPILOT_ANALYSIS_TIMEOUT",
		"SRECOPILOT_MAX_SIMILAR",
		"SRECOPILOT_LOG_LEVEL",
		"SRECOPILOT_LOG_FORMAT",
		"AWS_REGION",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
		"BEDROCK_MODEL_ID",
		"BEDROCK_VISION_MODEL_ID",
		"BEDROCK_EMBED_MODEL_ID",
		"ANTHROPIC_API_KEY",
		"OPENAI_API_KEY",
		"SLACK_BOT_TOKEN",
		"SLACK_CHANNEL",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID",
		"GITHUB_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	// Use a temp dir so MkdirAll does not fail and we don't pollute $HOME.
	tmpDir := t.TempDir()
	t.Setenv("SRECOPILOT_DATA_DIR", tmpDir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerAddr != ":7080" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, ":7080")
	}
	if cfg.DataDir != tmpDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, tmpDir)
	}
	wantDB := filepath.Join(tmpDir, "srecopilot.db")
	if cfg.DatabasePath != wantDB {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, wantDB)
	}
	if cfg.AnalysisTimeout != 10*time.Minute {
		t.Errorf("AnalysisTimeout = %v, want 10m", cfg.AnalysisTimeout)
	}
	if cfg.MaxSimilarIncidents != 3 {
		t.Errorf("MaxSimilarIncidents = %d, want 3", cfg.MaxSimilarIncidents)
	}
	if cfg.BedrockModelID == "" {
		t.Error("BedrockModelID should have a default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SRECOPILOT_DATA_DIR", t.TempDir())
	t.Setenv("SRECOPILOT_ADDR", ":9999")
	t.Setenv("SRECOPILOT_ANALYSIS_TIMEOUT", "90s")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123456")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerAddr != ":9999" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, ":9999")
	}
	if cfg.AnalysisTimeout != 90*time.Second {
		t.Errorf("AnalysisTimeout = %v, want 90s", cfg.AnalysisTimeout)
	}
	if cfg.TelegramChatID != -100123456 {
		t.Errorf("TelegramChatID = %d, want -100123456", cfg.TelegramChatID)
	}
}

// ---------------------------------------------------------------------------
// Provider detection
// ---------------------------------------------------------------------------

func TestLoad_ProviderDetection(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "aws region selects bedrock",
			env:  map[string]string{"AWS_REGION": "us-east-1"},
			want: config.ProviderBedrock,
		},
		{
			name: "anthropic key selects anthropic",
			env:  map[string]string{"ANTHROPIC_API_KEY": "sk-ant-test"},
			want: config.ProviderAnthropic,
		},
		{
			name: "openai key selects openai",
			env:  map[string]string{"OPENAI_API_KEY": "sk-test"},
			want: config.ProviderOpenAI,
		},
		{
			name: "aws wins over direct keys",
			env: map[string]string{
				"AWS_REGION":        "us-west-2",
				"ANTHROPIC_API_KEY": "sk-ant-test",
			},
			want: config.ProviderBedrock,
		},
		{
			name: "explicit provider wins",
			env: map[string]string{
				"SRECOPILOT_PROVIDER": "openai",
				"AWS_REGION":          "us-west-2",
			},
			want: config.ProviderOpenAI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("SRECOPILOT_DATA_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if cfg.Provider != tt.want {
				t.Errorf("Provider = %q, want %q", cfg.Provider, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name: "bedrock needs region",
			cfg:  config.Config{Provider: config.ProviderBedrock},
			wantErr: "AWS_REGION",
		},
		{
			name: "bedrock with region ok",
			cfg:  config.Config{Provider: config.ProviderBedrock, AWSRegion: "us-east-1"},
		},
		{
			name: "anthropic needs key",
			cfg:  config.Config{Provider: config.ProviderAnthropic},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name: "openai needs key",
			cfg:  config.Config{Provider: config.ProviderOpenAI},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name: "unknown provider",
			cfg:  config.Config{Provider: "watsonx"},
			wantErr: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFeatureToggles(t *testing.T) {
	cfg := config.Config{}
	if cfg.SlackEnabled() || cfg.TelegramEnabled() || cfg.PostmortemEnabled() {
		t.Error("empty config should have all integrations disabled")
	}

	cfg.SlackBotToken = "xoxb-test"
	if cfg.SlackEnabled() {
		t.Error("Slack should require a channel as well as a token")
	}
	cfg.SlackChannel = "#incidents"
	if !cfg.SlackEnabled() {
		t.Error("Slack should be enabled with token and channel")
	}

	cfg.TelegramBotToken = "123:abc"
	cfg.TelegramChatID = 42
	if !cfg.TelegramEnabled() {
		t.Error("Telegram should be enabled with token and chat ID")
	}

	cfg.GitHubToken = "ghp_test"
	cfg.PostmortemRepo = "acme/postmortems"
	if !cfg.PostmortemEnabled() {
		t.Error("postmortems should be enabled with token and repo")
	}
}
