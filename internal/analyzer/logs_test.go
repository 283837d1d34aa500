package analyzer

import (
	"testing"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

func logAt(t time.Time, level, source, message string) incident.LogEntry {
	return incident.LogEntry{Timestamp: t, Level: level, Source: source, Message: message}
}

// ---------------------------------------------------------------------------
// error patterns
// ---------------------------------------------------------------------------

func TestExtractErrorPatterns(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	logs := []incident.LogEntry{
		logAt(base, "INFO", "api", "request served"),
		logAt(base.Add(time.Second), "ERROR", "api", "connection refused"),
		logAt(base.Add(2*time.Second), "error", "api", "connection refused"),
		logAt(base.Add(3*time.Second), "FATAL", "db", "out of disk space"),
		logAt(base.Add(4*time.Second), "ERROR", "api", "connection refused"),
		logAt(base.Add(5*time.Second), "WARNING", "api", "slow request"),
	}

	patterns := extractErrorPatterns(logs)
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	// Highest frequency first, level normalized to upper case.
	if patterns[0].Level != "ERROR" || patterns[0].Message != "connection refused" || patterns[0].Frequency != 3 {
		t.Errorf("first pattern = %+v", patterns[0])
	}
	if patterns[1].Level != "FATAL" || patterns[1].Frequency != 1 {
		t.Errorf("second pattern = %+v", patterns[1])
	}
}

func TestExtractErrorPatterns_NoErrors(t *testing.T) {
	logs := []incident.LogEntry{
		logAt(time.Now(), "INFO", "api", "all good"),
		logAt(time.Now(), "DEBUG", "api", "cache hit"),
	}
	if got := extractErrorPatterns(logs); len(got) != 0 {
		t.Errorf("got %d patterns, want 0", len(got))
	}
}

// ---------------------------------------------------------------------------
// correlations
// ---------------------------------------------------------------------------

func TestFindCorrelations_SimilarWithinWindow(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	logs := []incident.LogEntry{
		logAt(base, "ERROR", "api", "database connection pool exhausted"),
		logAt(base.Add(90*time.Second), "ERROR", "api", "database connection pool timeout"),
	}

	got := findCorrelations(logs)
	if len(got) != 1 {
		t.Fatalf("got %d correlations, want 1", len(got))
	}
	c := got[0]
	if c.First != "database connection pool exhausted" {
		t.Errorf("first = %q", c.First)
	}
	if c.SecondsApart != 90 {
		t.Errorf("seconds apart = %v, want 90", c.SecondsApart)
	}
}

func TestFindCorrelations_OutsideWindow(t *testing.T) {
	base := time.Now()
	logs := []incident.LogEntry{
		logAt(base, "ERROR", "api", "database connection pool exhausted"),
		logAt(base.Add(10*time.Minute), "ERROR", "api", "database connection pool timeout"),
	}
	if got := findCorrelations(logs); len(got) != 0 {
		t.Errorf("got %d correlations across a 10m gap, want 0", len(got))
	}
}

func TestFindCorrelations_SkipsIdenticalAndDissimilar(t *testing.T) {
	base := time.Now()
	logs := []incident.LogEntry{
		logAt(base, "ERROR", "api", "connection refused"),
		logAt(base.Add(time.Second), "ERROR", "api", "connection refused"),
		logAt(base.Add(2*time.Second), "INFO", "billing", "nightly report generated successfully"),
	}
	if got := findCorrelations(logs); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestFindCorrelations_UnsortedInput(t *testing.T) {
	base := time.Now()
	logs := []incident.LogEntry{
		logAt(base.Add(time.Minute), "ERROR", "api", "database connection pool timeout"),
		logAt(base, "ERROR", "api", "database connection pool exhausted"),
	}
	got := findCorrelations(logs)
	if len(got) != 1 {
		t.Fatalf("got %d correlations, want 1", len(got))
	}
	if got[0].First != "database connection pool exhausted" {
		t.Errorf("earlier event should come first, got %q", got[0].First)
	}
}

// ---------------------------------------------------------------------------
// similarity
// ---------------------------------------------------------------------------

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"connection refused", "connection refused", 1},
		{"connection refused", "Connection Refused", 1},
		{"alpha beta", "gamma delta", 0},
		{"", "", 0},
		{"alpha beta gamma", "beta gamma delta", 0.5},
	}
	for _, tt := range tests {
		if got := jaccard(tt.a, tt.b); got != tt.want {
			t.Errorf("jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFormatLogs(t *testing.T) {
	ts := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	out := formatLogs([]incident.LogEntry{logAt(ts, "ERROR", "api", "connection refused")})
	want := "2026-03-14T12:30:00Z [ERROR] api: connection refused\n"
	if out != want {
		t.Errorf("formatLogs = %q, want %q", out, want)
	}
}

