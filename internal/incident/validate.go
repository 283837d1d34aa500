package incident

import (
	"fmt"
	"slices"
)

// Validate checks an incident before it is accepted for analysis.
func Validate(inc *Incident) error {
	if inc.ID == "" {
		return fmt.Errorf("incident ID is required")
	}
	if inc.Title == "" {
		return fmt.Errorf("incident title is required")
	}
	if inc.Description == "" {
		return fmt.Errorf("incident description is required")
	}
	if inc.Severity == "" {
		return fmt.Errorf("incident severity is required")
	}
	if !slices.Contains(Severities, inc.Severity) {
		return fmt.Errorf("invalid severity %q (must be one of P0-P4)", inc.Severity)
	}
	if inc.StartTime.IsZero() {
		return fmt.Errorf("incident start time is required")
	}
	if !inc.EndTime.IsZero() && inc.EndTime.Before(inc.StartTime) {
		return fmt.Errorf("end time cannot be before start time")
	}

	for i, m := range inc.Metrics {
		if err := ValidateMetric(&m); err != nil {
			return fmt.Errorf("metric %d: %w", i, err)
		}
	}
	for i, l := range inc.Logs {
		if err := ValidateLog(&l); err != nil {
			return fmt.Errorf("log %d: %w", i, err)
		}
	}
	return nil
}

// ValidateMetric checks a single metric record.
func ValidateMetric(m *Metric) error {
	if m.Name == "" {
		return fmt.Errorf("metric name is required")
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("metric timestamp is required")
	}
	return nil
}

// ValidateLog checks a single log record.
func ValidateLog(l *LogEntry) error {
	if l.Timestamp.IsZero() {
		return fmt.Errorf("log timestamp is required")
	}
	if l.Level == "" {
		return fmt.Errorf("log level is required")
	}
	if !slices.Contains(LogLevels, l.Level) {
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	if l.Message == "" {
		return fmt.Errorf("log message is required")
	}
	if l.Source == "" {
		return fmt.Errorf("log source is required")
	}
	return nil
}
