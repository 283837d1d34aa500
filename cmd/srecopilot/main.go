// SRE Copilot
//
// An AI incident analysis copilot for on-call engineers.
// Feed it an incident, get a root cause.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "srecopilot",
	Short: "SRE Copilot - AI Incident Analysis",
	Long: `SRE Copilot analyzes production incidents with a hosted AI model.
Feed it metrics, logs, and a description; get a root cause narrative.

  srecopilot config setup                  Set up credentials (first time)
  srecopilot serve                         Start the server and dashboard
  srecopilot analyze incident.yaml         Analyze an incident file
  srecopilot sample                        Analyze the built-in demo incident
  srecopilot list                          List analyses
  srecopilot status <id>                   Check analysis status`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SRECOPILOT_SERVER", "http://localhost:7080"), "SRE Copilot server URL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
