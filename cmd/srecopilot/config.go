package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// configKey describes a single configuration value.
type configKey struct {
	Key      string
	Desc     string
	Required bool
	Secret   bool
	Prefix   string // expected prefix for validation (e.g. "xoxb-"), empty = no check
}

// allConfigKeys lists every configurable value in display order.
var allConfigKeys = []configKey{
	{"SRECOPILOT_PROVIDER", "Inference provider (bedrock, anthropic, openai)", false, false, ""},
	{"AWS_REGION", "AWS region for Bedrock (e.g. us-east-1)", false, false, ""},
	{"AWS_ACCESS_KEY_ID", "AWS access key ID", false, true, ""},
	{"AWS_SECRET_ACCESS_KEY", "AWS secret access key", false, true, ""},
	{"BEDROCK_MODEL_ID", "Bedrock model for analysis", false, false, ""},
	{"ANTHROPIC_API_KEY", "Anthropic API key", false, true, "sk-ant-"},
	{"OPENAI_API_KEY", "OpenAI API key", false, true, "sk-"},
	{"SLACK_BOT_TOKEN", "Slack Bot User OAuth Token (xoxb-...)", false, true, "xoxb-"},
	{"SLACK_CHANNEL", "Slack channel for incident summaries (#incidents)", false, false, ""},
	{"TELEGRAM_BOT_TOKEN", "Telegram bot token (from @BotFather)", false, true, ""},
	{"TELEGRAM_CHAT_ID", "Telegram chat ID for notifications", false, false, ""},
	{"GITHUB_TOKEN", "GitHub token for postmortem issues (repo scope)", false, true, ""},
	{"SRECOPILOT_POSTMORTEM_REPO", "Repo for postmortem issues (owner/repo)", false, false, ""},
}

var validProviders = map[string]bool{
	"bedrock": true, "anthropic": true, "openai": true,
}

// ---------------------------------------------------------------------------
// Cobra commands
// ---------------------------------------------------------------------------

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage SRE Copilot configuration",
	Long: `Manage SRE Copilot configuration (provider credentials, notification tokens).

Configuration is stored in ~/.srecopilot/config.env and can be overridden
by environment variables.

  srecopilot config setup              Interactive setup wizard
  srecopilot config set KEY VALUE      Set a single config value
  srecopilot config show               Show current configuration
  srecopilot config path               Print config file path`,
}

var (
	setupNonInteractive bool
	setupProvider       string
	setupRegion         string
)

var configSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long: `Guided setup that walks you through configuring SRE Copilot step by step.

Non-interactive mode for CI/scripting:
  srecopilot config setup --non-interactive --provider=bedrock --region=us-east-1`,
	RunE: runConfigSetup,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a config value",
	Long: `Set a single configuration value. Example:
  srecopilot config set AWS_REGION us-east-1`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display all configured values. Secrets are masked.",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configFilePath())
		return nil
	},
}

func init() {
	configSetupCmd.Flags().BoolVar(&setupNonInteractive, "non-interactive", false, "Run without prompts (requires --provider)")
	configSetupCmd.Flags().StringVar(&setupProvider, "provider", "", "Inference provider: bedrock, anthropic, openai")
	configSetupCmd.Flags().StringVar(&setupRegion, "region", "", "AWS region (non-interactive bedrock setup)")

	configCmd.AddCommand(configSetupCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// ---------------------------------------------------------------------------
// Config file helpers
// ---------------------------------------------------------------------------

// configFilePath returns ~/.srecopilot/config.env.
func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".srecopilot", "config.env")
	}
	return filepath.Join(home, ".srecopilot", "config.env")
}

// loadConfigFile reads key=value pairs from the config file.
func loadConfigFile() (map[string]string, error) {
	values := make(map[string]string)
	path := configFilePath()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			values[parts[0]] = parts[1]
		}
	}
	return values, scanner.Err()
}

// saveConfigFile writes key=value pairs to the config file.
func saveConfigFile(values map[string]string) error {
	path := configFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "# SRE Copilot configuration")
	fmt.Fprintln(f, "# Managed by: srecopilot config")
	fmt.Fprintln(f, "# Environment variables override these values.")
	fmt.Fprintln(f)

	// Write in a stable order: known keys first, then any extras.
	written := make(map[string]bool)
	for _, ck := range allConfigKeys {
		if v, ok := values[ck.Key]; ok && v != "" {
			fmt.Fprintf(f, "%s=%s\n", ck.Key, v)
			written[ck.Key] = true
		}
	}

	var extras []string
	for k := range values {
		if !written[k] && values[k] != "" {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		fmt.Fprintf(f, "%s=%s\n", k, values[k])
	}

	return nil
}

// effectiveValue returns the current value for a key, preferring env vars over config file.
func effectiveValue(key string, fileValues map[string]string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fileValues[key]
}

// maskSecret masks a secret string, showing only the first 4 and last 4 characters.
func maskSecret(s string) string {
	if len(s) <= 12 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// ---------------------------------------------------------------------------
// Interactive helpers
// ---------------------------------------------------------------------------

// wizard holds shared state for the interactive setup.
type wizard struct {
	reader     *bufio.Reader
	fileValues map[string]string
	changed    int
}

func newWizard(fileValues map[string]string) *wizard {
	return &wizard{
		reader:     bufio.NewReader(os.Stdin),
		fileValues: fileValues,
	}
}

// askYesNo asks a yes/no question and returns true for yes.
func (w *wizard) askYesNo(prompt string, defaultYes bool) (bool, error) {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}
	fmt.Printf("  %s %s ", prompt, hint)
	input, err := w.reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultYes, nil
	}
	return input == "y" || input == "yes", nil
}

// askValue prompts for a single config value with validation.
// Returns true if a new value was accepted.
func (w *wizard) askValue(ck configKey) (bool, error) {
	current := effectiveValue(ck.Key, w.fileValues)

	status := "\033[31m✗ not set\033[0m"
	if current != "" {
		if ck.Secret {
			status = fmt.Sprintf("\033[32m✓ set\033[0m (%s)", maskSecret(current))
		} else {
			status = fmt.Sprintf("\033[32m✓ set\033[0m (%s)", current)
		}
	}

	fmt.Printf("  %s  %s\n", ck.Key, status)

	for {
		fmt.Print("  Paste value (Enter to keep): ")
		input, err := w.reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		input = strings.TrimSpace(input)

		// Enter = keep current.
		if input == "" {
			return false, nil
		}

		if ck.Prefix != "" && !strings.HasPrefix(input, ck.Prefix) {
			fmt.Printf("  \033[33m!\033[0m  That doesn't look right, expected prefix \"%s\". Try again or press Enter to skip.\n", ck.Prefix)
			continue
		}

		if ck.Key == "SRECOPILOT_POSTMORTEM_REPO" {
			if !strings.Contains(input, "/") || strings.HasPrefix(input, "/") {
				fmt.Print("  \033[33m!\033[0m  Expected format: owner/repo (e.g. myorg/runbooks). Try again or press Enter to skip.\n")
				continue
			}
		}

		w.fileValues[ck.Key] = input
		w.changed++
		fmt.Printf("  \033[32m✓ saved\033[0m\n")
		return true, nil
	}
}

// askKeys prompts for a list of keys in order.
func (w *wizard) askKeys(names ...string) error {
	for i, name := range names {
		if i > 0 {
			fmt.Println()
		}
		if _, err := w.askValue(findKey(name)); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Setup wizard (guided, multi-step)
// ---------------------------------------------------------------------------

func runConfigSetup(cmd *cobra.Command, args []string) error {
	fileValues, err := loadConfigFile()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if setupNonInteractive {
		return runNonInteractiveSetup(fileValues)
	}

	w := newWizard(fileValues)

	fmt.Println()
	fmt.Println("  \033[1mSRE Copilot Setup\033[0m")
	fmt.Println("  ─────────────────")
	fmt.Println("  This wizard will walk you through configuring SRE Copilot.")
	fmt.Println("  Press Enter at any prompt to keep the current value.")
	fmt.Println()

	// ── Step 1: Inference Provider ───────────────────────────────────────
	fmt.Println("  \033[1mStep 1 of 4 — Inference Provider (required)\033[0m")
	fmt.Println("  SRE Copilot needs a hosted model to synthesize root causes.")
	fmt.Println("  Options: bedrock (default), anthropic, openai")
	fmt.Println()

	provider := effectiveValue("SRECOPILOT_PROVIDER", w.fileValues)
	if provider == "" {
		provider = "bedrock"
	}
	fmt.Printf("  Current: %s\n", provider)
	for {
		fmt.Print("  Provider (Enter to keep): ")
		input, err := w.reader.ReadString('\n')
		if err != nil {
			return err
		}
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "" {
			break
		}
		if !validProviders[input] {
			fmt.Printf("  \033[33m!\033[0m  Unknown provider %q. Choose: bedrock, anthropic, openai\n", input)
			continue
		}
		w.fileValues["SRECOPILOT_PROVIDER"] = input
		provider = input
		w.changed++
		fmt.Printf("  \033[32m✓ saved\033[0m\n")
		break
	}
	fmt.Println()

	// ── Step 2: Provider Credentials ─────────────────────────────────────
	fmt.Println("  \033[1mStep 2 of 4 — Provider Credentials\033[0m")
	switch provider {
	case "anthropic":
		if err := w.askKeys("ANTHROPIC_API_KEY"); err != nil {
			return err
		}
	case "openai":
		if err := w.askKeys("OPENAI_API_KEY"); err != nil {
			return err
		}
	default:
		fmt.Println("  Bedrock uses the AWS SDK's credential chain; keys here are optional")
		fmt.Println("  if your environment or instance profile already provides them.")
		fmt.Println()
		if err := w.askKeys("AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"); err != nil {
			return err
		}
	}
	fmt.Println()

	// ── Step 3: Notifications ────────────────────────────────────────────
	fmt.Println("  \033[1mStep 3 of 4 — Notifications (optional)\033[0m")
	fmt.Println("  Post a summary to Slack or Telegram when an analysis completes.")
	fmt.Println()

	doSlack, err := w.askYesNo("Set up Slack?", false)
	if err != nil {
		return err
	}
	if doSlack {
		fmt.Println()
		if err := w.askKeys("SLACK_BOT_TOKEN", "SLACK_CHANNEL"); err != nil {
			return err
		}
	}
	fmt.Println()

	doTelegram, err := w.askYesNo("Set up Telegram?", false)
	if err != nil {
		return err
	}
	if doTelegram {
		fmt.Println()
		if err := w.askKeys("TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"); err != nil {
			return err
		}
	}
	fmt.Println()

	// ── Step 4: Postmortem Issues ────────────────────────────────────────
	fmt.Println("  \033[1mStep 4 of 4 — Postmortem Issues (optional)\033[0m")
	fmt.Println("  File a GitHub issue with the incident writeup when analysis completes.")
	fmt.Println()

	doPostmortem, err := w.askYesNo("Set up postmortem issues?", false)
	if err != nil {
		return err
	}
	if doPostmortem {
		fmt.Println()
		if err := w.askKeys("GITHUB_TOKEN", "SRECOPILOT_POSTMORTEM_REPO"); err != nil {
			return err
		}
	} else {
		fmt.Println("  Skipped. You can set this up later with: srecopilot config setup")
	}
	fmt.Println()

	// ── Save ─────────────────────────────────────────────────────────────
	if err := saveConfigFile(w.fileValues); err != nil {
		return err
	}

	// ── Summary ──────────────────────────────────────────────────────────
	fmt.Println("  \033[1mConfiguration Summary\033[0m")
	fmt.Println("  ────────────────────")
	fmt.Printf("  %-14s %s\n", "Provider", provider)
	printSummaryLine("AWS", effectiveValue("AWS_REGION", w.fileValues) != "")
	printSummaryLine("Anthropic", effectiveValue("ANTHROPIC_API_KEY", w.fileValues) != "")
	printSummaryLine("OpenAI", effectiveValue("OPENAI_API_KEY", w.fileValues) != "")
	printSummaryLine("Slack", effectiveValue("SLACK_BOT_TOKEN", w.fileValues) != "" &&
		effectiveValue("SLACK_CHANNEL", w.fileValues) != "")
	printSummaryLine("Telegram", effectiveValue("TELEGRAM_BOT_TOKEN", w.fileValues) != "")
	printSummaryLine("Postmortems", effectiveValue("GITHUB_TOKEN", w.fileValues) != "" &&
		effectiveValue("SRECOPILOT_POSTMORTEM_REPO", w.fileValues) != "")
	fmt.Println()
	fmt.Printf("  Saved to %s\n", configFilePath())
	fmt.Println()

	fmt.Println("  \033[1mNext Steps\033[0m")
	fmt.Println("  ──────────")
	fmt.Println("  1. Start the server:   srecopilot serve")
	fmt.Println("  2. Try the demo:       srecopilot sample --follow")
	fmt.Println("  3. Open the dashboard: http://localhost:7080")
	fmt.Println()

	return nil
}

// runNonInteractiveSetup handles --non-interactive mode.
func runNonInteractiveSetup(fileValues map[string]string) error {
	if setupProvider == "" {
		return fmt.Errorf("--provider is required in non-interactive mode")
	}
	if !validProviders[setupProvider] {
		return fmt.Errorf("unknown provider %q; valid: bedrock, anthropic, openai", setupProvider)
	}

	fileValues["SRECOPILOT_PROVIDER"] = setupProvider
	if setupRegion != "" {
		fileValues["AWS_REGION"] = setupRegion
	}

	if err := saveConfigFile(fileValues); err != nil {
		return err
	}

	fmt.Printf("Config written to %s\n", configFilePath())
	return nil
}

// findKey looks up a configKey by name.
func findKey(name string) configKey {
	for _, ck := range allConfigKeys {
		if ck.Key == name {
			return ck
		}
	}
	return configKey{Key: name}
}

// printSummaryLine prints a check or cross for a config section.
func printSummaryLine(label string, ok bool) {
	if ok {
		fmt.Printf("  \033[32m✓\033[0m %-12s configured\n", label)
	} else {
		fmt.Printf("  \033[90m-\033[0m %-12s not configured\n", label)
	}
}

// ---------------------------------------------------------------------------
// config set / config show
// ---------------------------------------------------------------------------

// runConfigSet sets a single key=value in the config file.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	fileValues, err := loadConfigFile()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	fileValues[key] = value

	if err := saveConfigFile(fileValues); err != nil {
		return err
	}

	isSecret := false
	for _, ck := range allConfigKeys {
		if ck.Key == key && ck.Secret {
			isSecret = true
			break
		}
	}

	if isSecret {
		fmt.Printf("Set %s = %s\n", key, maskSecret(value))
	} else {
		fmt.Printf("Set %s = %s\n", key, value)
	}
	return nil
}

// runConfigShow displays the current effective configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	fileValues, err := loadConfigFile()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	fmt.Printf("Config file: %s\n\n", configFilePath())

	for _, ck := range allConfigKeys {
		value := effectiveValue(ck.Key, fileValues)
		source := ""
		if os.Getenv(ck.Key) != "" {
			source = " (from env)"
		} else if fileValues[ck.Key] != "" {
			source = " (from config file)"
		}

		display := "(not set)"
		if value != "" {
			if ck.Secret {
				display = maskSecret(value)
			} else {
				display = value
			}
		}

		fmt.Printf("  %-28s %s%s\n", ck.Key, display, source)
	}

	return nil
}
