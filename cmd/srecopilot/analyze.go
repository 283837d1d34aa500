package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

var analyzeFollow bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Analyze an incident file",
	Long: `Submit an incident file (YAML or JSON) to the server for analysis.
Prints the analysis ID; use --follow to stream progress until it completes.

  srecopilot analyze incident.yaml
  srecopilot analyze incident.json --follow`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Analyze the built-in demo incident",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := postAnalysis("/api/analyses/sample", nil)
		if err != nil {
			return err
		}
		return reportStarted(created)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyses",
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status ID",
	Short: "Show the result of an analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var eventsCmd = &cobra.Command{
	Use:   "events ID",
	Short: "Stream progress events for an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return followEvents(args[0])
	},
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeFollow, "follow", "f", false, "Stream progress until the analysis completes")
	sampleCmd.Flags().BoolVarP(&analyzeFollow, "follow", "f", false, "Stream progress until the analysis completes")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(eventsCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var inc incident.Incident
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".json":
		err = json.Unmarshal(data, &inc)
	default:
		err = yaml.Unmarshal(data, &inc)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if err := incident.Validate(&inc); err != nil {
		return err
	}

	body, err := json.Marshal(inc)
	if err != nil {
		return err
	}
	created, err := postAnalysis("/api/analyses", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return reportStarted(created)
}

func runList(cmd *cobra.Command, args []string) error {
	var analyses []incident.Analysis
	if err := getJSON("/api/analyses", &analyses); err != nil {
		return err
	}
	if len(analyses) == 0 {
		fmt.Println("No analyses yet. Start one with: srecopilot sample")
		return nil
	}

	fmt.Printf("%-10s %-16s %-10s %s\n", "ID", "INCIDENT", "STATUS", "CREATED")
	for _, a := range analyses {
		fmt.Printf("%-10s %-16s %-10s %s\n", a.ID, a.IncidentID, a.Status, a.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	var a incident.Analysis
	if err := getJSON("/api/analyses/"+args[0], &a); err != nil {
		return err
	}

	fmt.Printf("Analysis %s  (incident %s)\n", a.ID, a.IncidentID)
	fmt.Printf("Status: %s\n", a.Status)
	if a.Error != "" {
		fmt.Printf("Error: %s\n", a.Error)
	}
	if a.RootCause != nil {
		fmt.Printf("\nRoot cause (confidence %.0f%%):\n  %s\n", a.RootCause.Confidence*100, a.RootCause.Description)
	}
	if a.Impact != nil {
		fmt.Printf("\nImpact (confidence %.0f%%):\n  %s\n", a.Impact.Confidence*100, a.Impact.Description)
	}
	if len(a.KeyFindings) > 0 {
		fmt.Println("\nKey findings:")
		for _, f := range a.KeyFindings {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(a.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range a.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
	return nil
}

// reportStarted prints the new analysis ID and optionally follows its events.
func reportStarted(created *createdAnalysis) error {
	fmt.Printf("Analysis started: %s (incident %s)\n", created.ID, created.IncidentID)
	fmt.Printf("Dashboard: %s/analyses/%s\n", serverURL, created.ID)
	if !analyzeFollow {
		fmt.Printf("Follow progress: srecopilot events %s\n", created.ID)
		return nil
	}
	return followEvents(created.ID)
}

// followEvents streams the SSE feed for an analysis, printing each event
// until a "done" or "error" event arrives.
func followEvents(id string) error {
	resp, err := http.Get(serverURL + "/api/analyses/" + id + "/events")
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	var eventType string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			// Each data line carries the JSON-encoded event.
			var ev struct {
				Data      string    `json:"data"`
				CreatedAt time.Time `json:"created_at"`
			}
			msg := strings.TrimPrefix(line, "data: ")
			if json.Unmarshal([]byte(msg), &ev) == nil && ev.Data != "" {
				msg = ev.Data
			}
			switch eventType {
			case "done":
				fmt.Println("Analysis complete.")
				fmt.Printf("View it: srecopilot status %s\n", id)
				return nil
			case "error":
				return fmt.Errorf("analysis failed: %s", msg)
			default:
				fmt.Printf("[%s] %s\n", ev.CreatedAt.Local().Format("15:04:05"), msg)
			}
		}
	}
	return scanner.Err()
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

type createdAnalysis struct {
	ID         string `json:"id"`
	IncidentID string `json:"incident_id"`
	Status     string `json:"status"`
}

func postAnalysis(path string, body io.Reader) (*createdAnalysis, error) {
	req, err := http.NewRequest(http.MethodPost, serverURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s (is the server running?): %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, readError(resp)
	}

	var created createdAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &created, nil
}

func getJSON(path string, out any) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("connecting to %s (is the server running?): %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readError turns a non-2xx response into an error, using the server's
// JSON error message when present.
func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server: %s", e.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
