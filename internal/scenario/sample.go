package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

var sampleErrorMessages = []string{
	"Connection timeout while connecting to database",
	"High memory usage detected",
	"Service health check failed",
	"Rate limit exceeded",
	"Cache miss rate above threshold",
	"Database connection pool exhausted",
}

var sampleSources = []string{"auth-service", "payment-service", "order-service"}

// Sample generates a realistic demo incident spanning the last two hours,
// with CPU and latency metrics for several services and a mix of normal and
// error logs.
func Sample() *incident.Incident {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	end := time.Now().UTC().Truncate(time.Minute)
	start := end.Add(-2 * time.Hour)

	return &incident.Incident{
		ID:       fmt.Sprintf("INC-%04d", 1000+rng.Intn(9000)),
		Title:    "High CPU Usage and Service Degradation",
		Severity: "P1",
		Description: `Multiple services experiencing high CPU utilization and increased latency.
Affected services: user authentication, payment processing, order management.
Roughly 30% of users cannot log in, payment processing is delayed up to
5 seconds, and order creation is failing at a 15% rate.`,
		StartTime: start,
		EndTime:   end,
		Metrics:   sampleMetrics(rng, start, end),
		Logs:      sampleLogs(rng, start, end),
		Tags: map[string]string{
			"environment": "production",
			"region":      "us-west-2",
			"team":        "platform",
		},
	}
}

func sampleMetrics(rng *rand.Rand, start, end time.Time) []incident.Metric {
	var metrics []incident.Metric
	for ts := start; !ts.After(end); ts = ts.Add(5 * time.Minute) {
		metrics = append(metrics,
			incident.Metric{
				Name:      "cpu_usage",
				Value:     60 + rng.Float64()*35,
				Timestamp: ts,
				Tags:      map[string]string{"service": "auth-service"},
			},
			incident.Metric{
				Name:      "cpu_usage",
				Value:     70 + rng.Float64()*28,
				Timestamp: ts,
				Tags:      map[string]string{"service": "payment-service"},
			},
			incident.Metric{
				Name:      "response_time",
				Value:     100 + rng.Float64()*4900,
				Timestamp: ts,
				Tags:      map[string]string{"service": "auth-service"},
			},
		)
	}
	return metrics
}

func sampleLogs(rng *rand.Rand, start, end time.Time) []incident.LogEntry {
	var logs []incident.LogEntry
	for ts := start; ts.Before(end); ts = ts.Add(time.Duration(5+rng.Intn(26)) * time.Second) {
		if rng.Float64() < 0.7 {
			logs = append(logs, incident.LogEntry{
				Timestamp: ts,
				Level:     "INFO",
				Message:   fmt.Sprintf("Processing request %d", 1000+rng.Intn(9000)),
				Source:    "auth-service",
			})
			continue
		}
		levels := []string{"ERROR", "WARNING", "CRITICAL"}
		logs = append(logs, incident.LogEntry{
			Timestamp: ts,
			Level:     levels[rng.Intn(len(levels))],
			Message:   sampleErrorMessages[rng.Intn(len(sampleErrorMessages))],
			Source:    sampleSources[rng.Intn(len(sampleSources))],
		})
	}
	return logs
}
