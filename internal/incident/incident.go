// Package incident provides the incident data model and its persistence
// (SQLite) plus an in-memory event bus for real-time analysis progress.
package incident

import "time"

// Status represents the current state of an analysis.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Terminal reports whether the analysis has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Severity levels accepted for an incident.
var Severities = []string{"P0", "P1", "P2", "P3", "P4"}

// LogLevels accepted for a log entry.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Metric is a single time-stamped measurement attached to an incident.
type Metric struct {
	Name      string            `json:"name" yaml:"name"`
	Value     float64           `json:"value" yaml:"value"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// LogEntry is a single log line attached to an incident.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Level     string            `json:"level" yaml:"level"`
	Message   string            `json:"message" yaml:"message"`
	Source    string            `json:"source" yaml:"source"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Incident is the telemetry bundle submitted for root-cause analysis.
type Incident struct {
	ID          string            `json:"incident_id" yaml:"incident_id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description" yaml:"description"`
	Severity    string            `json:"severity" yaml:"severity"`
	StartTime   time.Time         `json:"start_time" yaml:"start_time"`
	EndTime     time.Time         `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Metrics     []Metric          `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Logs        []LogEntry        `json:"logs,omitempty" yaml:"logs,omitempty"`
	Tags        map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Insight is a single analysis finding with its confidence and evidence.
type Insight struct {
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"` // 0.0 - 1.0
	Evidence    []string `json:"evidence,omitempty"`
}

// Analysis is the combined root-cause-analysis result for one incident.
type Analysis struct {
	ID              string    `json:"id"`
	IncidentID      string    `json:"incident_id"`
	Status          Status    `json:"status"`
	RootCause       *Insight  `json:"root_cause,omitempty"`
	Impact          *Insight  `json:"impact,omitempty"`
	MetricInsights  []Insight `json:"metric_insights,omitempty"`
	LogInsights     []Insight `json:"log_insights,omitempty"`
	KeyFindings     []string  `json:"key_findings,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Event is a single progress event in an analysis's lifecycle.
type Event struct {
	ID         int64     `json:"id"`
	AnalysisID string    `json:"analysis_id"`
	Type       string    `json:"type"` // "status", "output", "error", "done"
	Data       string    `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
}
