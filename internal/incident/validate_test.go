package incident

import (
	"strings"
	"testing"
	"time"
)

func validIncident() *Incident {
	start := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	return &Incident{
		ID:          "INC-1234",
		Title:       "High CPU usage",
		Description: "Multiple services experiencing high CPU utilization.",
		Severity:    "P1",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Metrics: []Metric{
			{Name: "cpu_usage", Value: 91.5, Timestamp: start, Tags: map[string]string{"service": "auth-service"}},
		},
		Logs: []LogEntry{
			{Timestamp: start, Level: "ERROR", Message: "Connection timeout", Source: "auth-service"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validIncident()); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Incident)
		wantErr string
	}{
		{"missing id", func(i *Incident) { i.ID = "" }, "incident ID"},
		{"missing title", func(i *Incident) { i.Title = "" }, "title"},
		{"missing description", func(i *Incident) { i.Description = "" }, "description"},
		{"missing severity", func(i *Incident) { i.Severity = "" }, "severity"},
		{"bad severity", func(i *Incident) { i.Severity = "SEV1" }, "invalid severity"},
		{"missing start time", func(i *Incident) { i.StartTime = time.Time{} }, "start time"},
		{"end before start", func(i *Incident) { i.EndTime = i.StartTime.Add(-time.Hour) }, "end time"},
		{"metric missing name", func(i *Incident) { i.Metrics[0].Name = "" }, "metric name"},
		{"metric missing timestamp", func(i *Incident) { i.Metrics[0].Timestamp = time.Time{} }, "metric timestamp"},
		{"log missing level", func(i *Incident) { i.Logs[0].Level = "" }, "log level"},
		{"log bad level", func(i *Incident) { i.Logs[0].Level = "TRACE" }, "invalid log level"},
		{"log missing message", func(i *Incident) { i.Logs[0].Message = "" }, "log message"},
		{"log missing source", func(i *Incident) { i.Logs[0].Source = "" }, "log source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := validIncident()
			tt.mutate(inc)
			err := Validate(inc)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_OpenEndedIncident(t *testing.T) {
	inc := validIncident()
	inc.EndTime = time.Time{} // still ongoing
	if err := Validate(inc); err != nil {
		t.Fatalf("open-ended incident should be valid, got %v", err)
	}
}
