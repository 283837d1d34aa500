package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// correlationWindow is how close two log events must be to count as related.
const correlationWindow = 5 * time.Minute

// similarityThreshold is the minimum Jaccard word similarity for two log
// messages to be considered related.
const similarityThreshold = 0.3

// ErrorPattern is a recurring error message with its frequency.
type ErrorPattern struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Frequency int    `json:"frequency"`
}

// Correlation is a pair of related log events close in time.
type Correlation struct {
	First        string  `json:"first"`
	Second       string  `json:"second"`
	SecondsApart float64 `json:"seconds_apart"`
}

// LogAnalysis holds the combined pattern-matching and model findings for a
// set of logs.
type LogAnalysis struct {
	Insights      []incident.Insight `json:"insights"`
	ErrorPatterns []ErrorPattern     `json:"error_patterns"`
	Correlations  []Correlation      `json:"correlations"`
}

var errorLevels = map[string]bool{
	"ERROR":    true,
	"FATAL":    true,
	"CRITICAL": true,
	"FAILED":   true,
}

// extractErrorPatterns counts identical error-class messages across the logs.
// Results are ordered by descending frequency.
func extractErrorPatterns(logs []incident.LogEntry) []ErrorPattern {
	type key struct{ level, message string }
	counts := make(map[key]int)
	var order []key

	for _, l := range logs {
		level := strings.ToUpper(l.Level)
		if !errorLevels[level] {
			continue
		}
		k := key{level, l.Message}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	patterns := make([]ErrorPattern, 0, len(order))
	for _, k := range order {
		patterns = append(patterns, ErrorPattern{
			Level:     k.level,
			Message:   k.message,
			Frequency: counts[k],
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Frequency > patterns[j].Frequency
	})
	return patterns
}

// findCorrelations pairs log events that occur within the correlation window
// and share enough vocabulary to look related.
func findCorrelations(logs []incident.LogEntry) []Correlation {
	sorted := make([]incident.LogEntry, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var correlations []Correlation
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			diff := sorted[j].Timestamp.Sub(sorted[i].Timestamp)
			if diff > correlationWindow {
				break // sorted by time, nothing later can be closer
			}
			if sorted[i].Message == sorted[j].Message {
				continue // repeats are covered by error patterns
			}
			if jaccard(sorted[i].Message, sorted[j].Message) > similarityThreshold {
				correlations = append(correlations, Correlation{
					First:        sorted[i].Message,
					Second:       sorted[j].Message,
					SecondsApart: diff.Seconds(),
				})
			}
		}
	}
	return correlations
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

// jaccard computes word-set similarity between two messages.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = true
	}
	return set
}

// formatLogs renders logs as prompt text, one line per entry.
func formatLogs(logs []incident.LogEntry) string {
	var b strings.Builder
	for _, l := range logs {
		b.WriteString(l.Timestamp.UTC().Format(time.RFC3339))
		b.WriteString(" [")
		b.WriteString(l.Level)
		b.WriteString("] ")
		b.WriteString(l.Source)
		b.WriteString(": ")
		b.WriteString(l.Message)
		b.WriteString("\n")
	}
	return b.String()
}
