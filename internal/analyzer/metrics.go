package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// Anomaly is a statistical outlier detected in one metric series.
type Anomaly struct {
	Metric string    `json:"metric"`
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

// Trend describes the direction of one metric series over the incident window.
type Trend struct {
	Metric    string  `json:"metric"`
	Direction string  `json:"direction"` // "increasing" or "decreasing"
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Strength  float64 `json:"strength"`
}

// MetricAnalysis holds the combined local-statistics and model findings for
// a set of metrics.
type MetricAnalysis struct {
	Insights  []incident.Insight `json:"insights"`
	Anomalies []Anomaly          `json:"anomalies"`
	Trends    []Trend            `json:"trends"`
}

// seriesKey groups metrics into series by name and service tag.
func seriesKey(m incident.Metric) string {
	if svc, ok := m.Tags["service"]; ok {
		return m.Name + "/" + svc
	}
	return m.Name
}

// groupSeries splits metrics into per-series value slices, ordered by
// timestamp within each series. Keys are returned sorted for determinism.
func groupSeries(metrics []incident.Metric) ([]string, map[string][]incident.Metric) {
	series := make(map[string][]incident.Metric)
	for _, m := range metrics {
		key := seriesKey(m)
		series[key] = append(series[key], m)
	}
	keys := make([]string, 0, len(series))
	for k := range series {
		sort.Slice(series[k], func(i, j int) bool {
			return series[k][i].Timestamp.Before(series[k][j].Timestamp)
		})
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, series
}

// detectAnomalies flags values more than three standard deviations from the
// series mean.
func detectAnomalies(metrics []incident.Metric) []Anomaly {
	var anomalies []Anomaly
	keys, series := groupSeries(metrics)

	for _, key := range keys {
		values := make([]float64, len(series[key]))
		for i, m := range series[key] {
			values[i] = m.Value
		}
		mean, std := meanStd(values)
		if std == 0 {
			continue
		}

		var outliers []float64
		for _, v := range values {
			if math.Abs(v-mean) > 3*std {
				outliers = append(outliers, v)
			}
		}
		if len(outliers) > 0 {
			anomalies = append(anomalies, Anomaly{
				Metric: key,
				Values: outliers,
				Mean:   mean,
				Std:    std,
			})
		}
	}
	return anomalies
}

// analyzeTrends fits a least-squares line to each series and reports its
// direction. Series with fewer than two points are skipped.
func analyzeTrends(metrics []incident.Metric) []Trend {
	var trends []Trend
	keys, series := groupSeries(metrics)

	for _, key := range keys {
		points := series[key]
		if len(points) < 2 {
			continue
		}
		values := make([]float64, len(points))
		for i, m := range points {
			values[i] = m.Value
		}
		slope, intercept := linearFit(values)

		direction := "increasing"
		if slope < 0 {
			direction = "decreasing"
		}
		trends = append(trends, Trend{
			Metric:    key,
			Direction: direction,
			Slope:     slope,
			Intercept: intercept,
			Strength:  math.Abs(slope),
		})
	}
	return trends
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// linearFit returns the slope and intercept of the least-squares line over
// values indexed 0..n-1.
func linearFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// summarizeStats renders anomalies and trends as prompt context.
func summarizeStats(anomalies []Anomaly, trends []Trend) string {
	var b strings.Builder
	if len(anomalies) > 0 {
		b.WriteString("Detected anomalies (values beyond 3 standard deviations):\n")
		for _, a := range anomalies {
			fmt.Fprintf(&b, "- %s: %d outlier(s), mean %.2f, std %.2f\n",
				a.Metric, len(a.Values), a.Mean, a.Std)
		}
	}
	if len(trends) > 0 {
		b.WriteString("Detected trends:\n")
		for _, tr := range trends {
			fmt.Fprintf(&b, "- %s: %s (slope %.4f)\n", tr.Metric, tr.Direction, tr.Slope)
		}
	}
	return b.String()
}
