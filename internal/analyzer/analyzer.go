// Package analyzer implements the incident analysis pipeline.
//
// Instead of handing raw telemetry to the model, the analyzer:
//  1. STATS     - Computes local statistics (anomalies, trends, error
//     patterns, correlations) so the model reasons over summaries
//  2. PROMPT    - Renders the statistics and incident details into a
//     structured prompt template
//  3. SYNTHESIZE - Asks the model for a root cause narrative and parses
//     the structured sections back out
//
// The local statistics run regardless of model availability, so the
// numerical findings are always real even when the narrative is not.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jencheng1/sre-copilot/internal/incident"
	"github.com/Jencheng1/sre-copilot/llm"
)

// Result is the full output of an incident analysis.
type Result struct {
	RootCause       *incident.Insight `json:"root_cause,omitempty"`
	Impact          *incident.Insight `json:"impact,omitempty"`
	KeyFindings     []string          `json:"key_findings,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Metrics         *MetricAnalysis   `json:"metrics,omitempty"`
	Logs            *LogAnalysis      `json:"logs,omitempty"`
}

// Analyzer runs statistical analysis locally and delegates narrative
// synthesis to an LLM.
type Analyzer struct {
	client llm.Client
	vision llm.VisionClient

	// OnStage, when set, receives a progress message as each pipeline
	// stage starts.
	OnStage func(msg string)
}

// New creates an Analyzer. vision may be nil when the configured provider
// has no image support.
func New(client llm.Client, vision llm.VisionClient) *Analyzer {
	return &Analyzer{client: client, vision: vision}
}

func (a *Analyzer) stage(msg string) {
	if a.OnStage != nil {
		a.OnStage(msg)
	}
}

// AnalyzeIncident runs the full pipeline: metric and log statistics, then a
// root cause synthesis over the combined evidence. similarContext carries
// summaries of related past incidents and may be empty.
func (a *Analyzer) AnalyzeIncident(ctx context.Context, inc *incident.Incident, similarContext string) (*Result, error) {
	res := &Result{}

	if len(inc.Metrics) > 0 {
		a.stage(fmt.Sprintf("Analyzing %d metric points...", len(inc.Metrics)))
		m, err := a.AnalyzeMetrics(ctx, inc.Metrics)
		if err != nil {
			return nil, fmt.Errorf("metric analysis: %w", err)
		}
		res.Metrics = m
	}
	if len(inc.Logs) > 0 {
		a.stage(fmt.Sprintf("Analyzing %d log entries...", len(inc.Logs)))
		l, err := a.AnalyzeLogs(ctx, inc.Logs)
		if err != nil {
			return nil, fmt.Errorf("log analysis: %w", err)
		}
		res.Logs = l
	}

	a.stage("Synthesizing root cause analysis...")
	user := renderIncidentPrompt(inc, res, similarContext)
	response, err := a.client.Complete(ctx, rcaSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("root cause synthesis: %w", err)
	}

	findings := parseRCA(response)
	if findings.RootCause.Description == "" {
		// Model ignored the template. Keep the raw narrative rather
		// than dropping it.
		findings.RootCause = incident.Insight{
			Description: strings.TrimSpace(response),
			Confidence:  0.5,
		}
	}
	res.RootCause = &findings.RootCause
	if findings.Impact.Description != "" {
		res.Impact = &findings.Impact
	}
	res.KeyFindings = findings.KeyFindings
	res.Recommendations = findings.Recommendations

	return res, nil
}

// AnalyzeMetrics computes anomalies and trends locally, then asks the model
// to interpret the statistical summary.
func (a *Analyzer) AnalyzeMetrics(ctx context.Context, metrics []incident.Metric) (*MetricAnalysis, error) {
	analysis := &MetricAnalysis{
		Anomalies: detectAnomalies(metrics),
		Trends:    analyzeTrends(metrics),
	}

	var b strings.Builder
	b.WriteString("Metric statistics for an ongoing incident:\n\n")
	keys, series := groupSeries(metrics)
	for _, key := range keys {
		values := make([]float64, len(series[key]))
		for i, m := range series[key] {
			values[i] = m.Value
		}
		mean, std := meanStd(values)
		fmt.Fprintf(&b, "Series %s: %d points, mean %.2f, std %.2f, latest %.2f\n",
			key, len(values), mean, std, values[len(values)-1])
	}
	b.WriteString("\n")
	b.WriteString(summarizeStats(analysis.Anomalies, analysis.Trends))
	b.WriteString("\nInterpret these metrics.")

	response, err := a.client.Complete(ctx, metricsSystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("metric synthesis: %w", err)
	}
	analysis.Insights = parseInsights(response)

	return analysis, nil
}

// AnalyzeLogs extracts error patterns and temporal correlations locally,
// then asks the model to interpret them against the raw log lines.
func (a *Analyzer) AnalyzeLogs(ctx context.Context, logs []incident.LogEntry) (*LogAnalysis, error) {
	analysis := &LogAnalysis{
		ErrorPatterns: extractErrorPatterns(logs),
		Correlations:  findCorrelations(logs),
	}

	var b strings.Builder
	b.WriteString("Log entries collected during an incident:\n\n")
	b.WriteString(formatLogs(logs))
	if len(analysis.ErrorPatterns) > 0 {
		b.WriteString("\nRecurring error patterns:\n")
		for _, p := range analysis.ErrorPatterns {
			fmt.Fprintf(&b, "- [%s] %q seen %d times\n", p.Level, p.Message, p.Frequency)
		}
	}
	if len(analysis.Correlations) > 0 {
		b.WriteString("\nCorrelated event pairs (within the correlation window):\n")
		for _, c := range analysis.Correlations {
			fmt.Fprintf(&b, "- %q followed by %q after %.0fs\n", c.First, c.Second, c.SecondsApart)
		}
	}
	b.WriteString("\nInterpret these logs.")

	response, err := a.client.Complete(ctx, logsSystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("log synthesis: %w", err)
	}
	analysis.Insights = parseInsights(response)

	return analysis, nil
}

// DescribeImage analyzes a dashboard screenshot or architecture diagram.
// Returns an error when the configured provider has no vision support.
func (a *Analyzer) DescribeImage(ctx context.Context, question, mediaType string, data []byte) (string, error) {
	if a.vision == nil {
		return "", fmt.Errorf("image analysis: configured provider has no vision support")
	}
	if question == "" {
		question = defaultImagePrompt
	}
	text, err := a.vision.DescribeImage(ctx, question, mediaType, data)
	if err != nil {
		return "", fmt.Errorf("image analysis: %w", err)
	}
	return text, nil
}

// renderIncidentPrompt assembles the user prompt for root cause synthesis.
func renderIncidentPrompt(inc *incident.Incident, res *Result, similarContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident %s: %s\n", inc.ID, inc.Title)
	fmt.Fprintf(&b, "Severity: %s\n", inc.Severity)
	fmt.Fprintf(&b, "Started: %s\n", inc.StartTime.Format("2006-01-02 15:04:05 MST"))
	if inc.EndTime.IsZero() {
		b.WriteString("Status: ongoing\n")
	} else {
		fmt.Fprintf(&b, "Ended: %s\n", inc.EndTime.Format("2006-01-02 15:04:05 MST"))
	}
	if inc.Description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", inc.Description)
	}

	if res.Metrics != nil {
		b.WriteString("\n## Metric Findings\n")
		for _, an := range res.Metrics.Anomalies {
			fmt.Fprintf(&b, "- anomaly in %s: values %v deviate more than 3 sigma from mean %.2f\n", an.Metric, an.Values, an.Mean)
		}
		for _, tr := range res.Metrics.Trends {
			fmt.Fprintf(&b, "- %s trending %s (slope %.4f, strength %.2f)\n", tr.Metric, tr.Direction, tr.Slope, tr.Strength)
		}
		for _, in := range res.Metrics.Insights {
			fmt.Fprintf(&b, "- %s\n", in.Description)
		}
	}
	if res.Logs != nil {
		b.WriteString("\n## Log Findings\n")
		for _, p := range res.Logs.ErrorPatterns {
			fmt.Fprintf(&b, "- [%s] %q seen %d times\n", p.Level, p.Message, p.Frequency)
		}
		for _, c := range res.Logs.Correlations {
			fmt.Fprintf(&b, "- %q followed by %q after %.0fs\n", c.First, c.Second, c.SecondsApart)
		}
		for _, in := range res.Logs.Insights {
			fmt.Fprintf(&b, "- %s\n", in.Description)
		}
	}
	if similarContext != "" {
		fmt.Fprintf(&b, "\n## Similar Past Incidents\n%s\n", similarContext)
	}

	b.WriteString("\nProduce the root cause analysis.")
	return b.String()
}

// --- System Prompts ---

const rcaSystemPrompt = `You are a senior site reliability engineer performing root cause analysis.

You receive an incident summary with pre-computed metric and log findings.
Respond using exactly this structure:

1. Root Cause Analysis:
[Most likely root cause in one or two sentences]
Confidence: [0-100]%
Evidence:
- [supporting evidence]

2. Impact Analysis:
[Scope and severity of the impact]
Confidence: [0-100]%
Evidence:
- [supporting evidence]

3. Key Findings:
- [finding]

4. Recommendations:
- [actionable remediation or prevention step]

Rules:
- Ground every claim in the provided findings, never invent telemetry
- State confidence honestly; low confidence is acceptable
- Keep recommendations specific and actionable`

const metricsSystemPrompt = `You are a site reliability engineer interpreting metric statistics.

You receive per-series summaries with detected anomalies and trends.
For each meaningful observation respond with a block:

Insight: [one-sentence interpretation]
Confidence: [0-100]%
Evidence:
- [the statistic supporting it]

Rules:
- Only reference series that appear in the input
- Prefer fewer, stronger insights over exhaustive lists`

const logsSystemPrompt = `You are a site reliability engineer interpreting incident logs.

You receive log lines plus pre-computed error patterns and correlated
event pairs. For each meaningful observation respond with a block:

Insight: [one-sentence interpretation]
Confidence: [0-100]%
Evidence:
- [the log line or pattern supporting it]

Rules:
- Treat correlated pairs as hypotheses, not proof of causation
- Only reference messages that appear in the input`

const defaultImagePrompt = `Describe this image in the context of a production incident.
Identify the components shown, any visible anomalies or error states,
and what the image suggests about the failure.`
