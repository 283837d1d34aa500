package analyzer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// ---------------------------------------------------------------------------
// parseRCA
// ---------------------------------------------------------------------------

func TestParseRCA_FullResponse(t *testing.T) {
	text := `1. Root Cause Analysis:
Connection pool exhaustion in the payment service.
Confidence: 85%
Evidence:
- cpu_usage spiked beyond 3 sigma at 14:32
- "connection refused" repeated 12 times

2. Impact Analysis:
Checkout requests failed for roughly 20 minutes.
Confidence: 70%
Evidence:
- response_time trending increasing

3. Key Findings:
- Database connections were not released on timeout
- Retry storm amplified the load

4. Recommendations:
- Add connection pool metrics and alerts
- Cap retries with exponential backoff`

	got := parseRCA(text)

	want := &rcaFindings{
		RootCause: incident.Insight{
			Description: "Connection pool exhaustion in the payment service.",
			Confidence:  0.85,
			Evidence: []string{
				`cpu_usage spiked beyond 3 sigma at 14:32`,
				`"connection refused" repeated 12 times`,
			},
		},
		Impact: incident.Insight{
			Description: "Checkout requests failed for roughly 20 minutes.",
			Confidence:  0.7,
			Evidence:    []string{"response_time trending increasing"},
		},
		KeyFindings: []string{
			"Database connections were not released on timeout",
			"Retry storm amplified the load",
		},
		Recommendations: []string{
			"Add connection pool metrics and alerts",
			"Cap retries with exponential backoff",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseRCA mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRCA_UnnumberedHeaders(t *testing.T) {
	text := `Root Cause Analysis:
Disk full on the primary database node.
Confidence: 90%`

	got := parseRCA(text)
	if got.RootCause.Description != "Disk full on the primary database node." {
		t.Errorf("description = %q", got.RootCause.Description)
	}
	if got.RootCause.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", got.RootCause.Confidence)
	}
}

func TestParseRCA_Freeform(t *testing.T) {
	got := parseRCA("The incident was probably caused by a bad deploy.")
	if got.RootCause.Description != "" {
		t.Errorf("expected empty root cause for freeform text, got %q", got.RootCause.Description)
	}
}

// ---------------------------------------------------------------------------
// parseInsights
// ---------------------------------------------------------------------------

func TestParseInsights_Blocks(t *testing.T) {
	text := `Insight: cpu_usage on api-server is anomalous.
Confidence: 80%
Evidence:
- 2 outliers beyond 3 sigma

Insight: response_time is steadily increasing.
Confidence: 65%`

	got := parseInsights(text)
	if len(got) != 2 {
		t.Fatalf("got %d insights, want 2", len(got))
	}
	if got[0].Description != "cpu_usage on api-server is anomalous." {
		t.Errorf("first description = %q", got[0].Description)
	}
	if got[0].Confidence != 0.8 {
		t.Errorf("first confidence = %v", got[0].Confidence)
	}
	if len(got[0].Evidence) != 1 || got[0].Evidence[0] != "2 outliers beyond 3 sigma" {
		t.Errorf("first evidence = %v", got[0].Evidence)
	}
	if got[1].Confidence != 0.65 {
		t.Errorf("second confidence = %v", got[1].Confidence)
	}
}

func TestParseInsights_FreeformFallback(t *testing.T) {
	got := parseInsights("Nothing structured here, just prose.")
	if len(got) != 1 {
		t.Fatalf("got %d insights, want 1", len(got))
	}
	if got[0].Description != "Nothing structured here, just prose." {
		t.Errorf("description = %q", got[0].Description)
	}
	if got[0].Confidence != 0.5 {
		t.Errorf("fallback confidence = %v, want 0.5", got[0].Confidence)
	}
}

func TestParseInsights_Empty(t *testing.T) {
	if got := parseInsights("   \n  "); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"85", 0.85},
		{"100", 1},
		{"0", 0},
		{"62.5", 0.625},
		{"150", 1},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := parseConfidence(tt.in); got != tt.want {
			t.Errorf("parseConfidence(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
