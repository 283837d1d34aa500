package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// scriptedClient returns canned responses and records every prompt it sees.
type scriptedClient struct {
	responses []string
	err       error

	calls   int
	systems []string
	users   []string
}

func (c *scriptedClient) Complete(_ context.Context, system, user string) (string, error) {
	c.systems = append(c.systems, system)
	c.users = append(c.users, user)
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", nil
	}
	resp := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return resp, nil
}

type scriptedVision struct {
	text string
	err  error

	prompt    string
	mediaType string
	data      []byte
}

func (v *scriptedVision) DescribeImage(_ context.Context, prompt, mediaType string, data []byte) (string, error) {
	v.prompt, v.mediaType, v.data = prompt, mediaType, data
	return v.text, v.err
}

func testIncident() *incident.Incident {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return &incident.Incident{
		ID:          "INC-2001",
		Title:       "Checkout latency spike",
		Description: "p99 latency tripled after the 11:45 deploy",
		Severity:    "P1",
		StartTime:   start,
		Metrics:     metricSeries("response_time", "checkout", start, 100, 120, 140, 160, 180),
		Logs: []incident.LogEntry{
			logAt(start, "ERROR", "checkout", "database connection pool exhausted"),
			logAt(start.Add(time.Minute), "ERROR", "checkout", "database connection pool exhausted"),
		},
	}
}

const structuredRCA = `1. Root Cause Analysis:
Pool sizing regression in the 11:45 deploy.
Confidence: 80%
Evidence:
- response_time trending increasing

2. Impact Analysis:
Checkout degraded for all users.
Confidence: 75%

3. Key Findings:
- Connection pool exhausted repeatedly

4. Recommendations:
- Roll back the deploy`

func TestAnalyzeIncident_FullPipeline(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Insight: response_time is rising steadily.\nConfidence: 70%",
		"Insight: the pool is exhausted.\nConfidence: 90%",
		structuredRCA,
	}}
	a := New(client, nil)

	res, err := a.AnalyzeIncident(context.Background(), testIncident(), "")
	if err != nil {
		t.Fatalf("AnalyzeIncident: %v", err)
	}

	if client.calls != 3 {
		t.Fatalf("model called %d times, want 3 (metrics, logs, synthesis)", client.calls)
	}
	if res.RootCause == nil || res.RootCause.Description != "Pool sizing regression in the 11:45 deploy." {
		t.Errorf("root cause = %+v", res.RootCause)
	}
	if res.RootCause.Confidence != 0.8 {
		t.Errorf("root cause confidence = %v, want 0.8", res.RootCause.Confidence)
	}
	if res.Impact == nil || res.Impact.Description != "Checkout degraded for all users." {
		t.Errorf("impact = %+v", res.Impact)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0] != "Roll back the deploy" {
		t.Errorf("recommendations = %v", res.Recommendations)
	}
	if res.Metrics == nil || len(res.Metrics.Trends) == 0 {
		t.Errorf("expected metric trends, got %+v", res.Metrics)
	}
	if res.Logs == nil || len(res.Logs.ErrorPatterns) != 1 {
		t.Errorf("expected one error pattern, got %+v", res.Logs)
	}
}

func TestAnalyzeIncident_PromptCarriesIncidentDetails(t *testing.T) {
	client := &scriptedClient{responses: []string{structuredRCA}}
	a := New(client, nil)

	inc := testIncident()
	inc.Metrics = nil
	inc.Logs = nil
	if _, err := a.AnalyzeIncident(context.Background(), inc, "INC-1800: similar pool exhaustion last month"); err != nil {
		t.Fatalf("AnalyzeIncident: %v", err)
	}

	prompt := client.users[len(client.users)-1]
	for _, want := range []string{
		"INC-2001",
		"Checkout latency spike",
		"Severity: P1",
		"p99 latency tripled",
		"Status: ongoing",
		"INC-1800",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("synthesis prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnalyzeIncident_FreeformResponseKept(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Probably a bad deploy, hard to say more.",
	}}
	a := New(client, nil)

	inc := testIncident()
	inc.Metrics = nil
	inc.Logs = nil
	res, err := a.AnalyzeIncident(context.Background(), inc, "")
	if err != nil {
		t.Fatalf("AnalyzeIncident: %v", err)
	}
	if res.RootCause.Description != "Probably a bad deploy, hard to say more." {
		t.Errorf("root cause = %q", res.RootCause.Description)
	}
	if res.RootCause.Confidence != 0.5 {
		t.Errorf("fallback confidence = %v, want 0.5", res.RootCause.Confidence)
	}
}

func TestAnalyzeIncident_ModelErrorSurfaces(t *testing.T) {
	boom := errors.New("throttled")
	a := New(&scriptedClient{err: boom}, nil)

	_, err := a.AnalyzeIncident(context.Background(), testIncident(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the model error", err)
	}
}

func TestAnalyzeMetrics_PromptCarriesSeriesStats(t *testing.T) {
	client := &scriptedClient{responses: []string{"Insight: looks fine.\nConfidence: 60%"}}
	a := New(client, nil)

	start := time.Now()
	_, err := a.AnalyzeMetrics(context.Background(), metricSeries("cpu_usage", "api", start, 10, 20, 30))
	if err != nil {
		t.Fatalf("AnalyzeMetrics: %v", err)
	}
	prompt := client.users[0]
	for _, want := range []string{"cpu_usage/api", "3 points", "mean 20.00", "latest 30.00"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("metrics prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAnalyzeLogs_PromptCarriesPatterns(t *testing.T) {
	client := &scriptedClient{responses: []string{"Insight: repeated failures.\nConfidence: 85%"}}
	a := New(client, nil)

	base := time.Now()
	logs := []incident.LogEntry{
		logAt(base, "ERROR", "api", "connection refused"),
		logAt(base.Add(time.Second), "ERROR", "api", "connection refused"),
	}
	res, err := a.AnalyzeLogs(context.Background(), logs)
	if err != nil {
		t.Fatalf("AnalyzeLogs: %v", err)
	}
	if !strings.Contains(client.users[0], `"connection refused" seen 2 times`) {
		t.Errorf("logs prompt missing error pattern:\n%s", client.users[0])
	}
	if len(res.Insights) != 1 || res.Insights[0].Description != "repeated failures." {
		t.Errorf("insights = %+v", res.Insights)
	}
}

func TestDescribeImage(t *testing.T) {
	vision := &scriptedVision{text: "a latency dashboard with a spike at 12:05"}
	a := New(&scriptedClient{}, vision)

	out, err := a.DescribeImage(context.Background(), "", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if out != vision.text {
		t.Errorf("out = %q", out)
	}
	if vision.prompt == "" {
		t.Error("empty question should fall back to the default prompt")
	}
	if vision.mediaType != "image/png" {
		t.Errorf("media type = %q", vision.mediaType)
	}
}

func TestDescribeImage_NoVisionClient(t *testing.T) {
	a := New(&scriptedClient{}, nil)
	if _, err := a.DescribeImage(context.Background(), "what is this", "image/png", nil); err == nil {
		t.Fatal("expected error when vision is unavailable")
	}
}
