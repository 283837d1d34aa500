package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

const chartTimeFormat = "15:04:05"

// MetricsPage builds the metric charts for one incident: a time series line
// per metric series and a bar chart of per-series means.
func MetricsPage(inc *incident.Incident) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Metrics: " + inc.ID
	page.AddCharts(metricsLine(inc.Metrics), metricsBar(inc.Metrics))
	return page
}

// LogsPage builds the log charts for one incident: a level distribution pie
// and a timeline scatter colored by source.
func LogsPage(inc *incident.Incident) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Logs: " + inc.ID
	page.AddCharts(logLevelPie(inc.Logs), logTimeline(inc.Logs))
	return page
}

// metricsLine plots every metric series over time.
func metricsLine(metrics []incident.Metric) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Metrics Over Time"}),
	)

	keys, series, xs := alignSeries(metrics)
	line.SetXAxis(xs)
	for _, key := range keys {
		data := make([]opts.LineData, len(series[key]))
		for i, v := range series[key] {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(key, data)
	}
	return line
}

// metricsBar summarizes each series as its mean value.
func metricsBar(metrics []incident.Metric) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Mean Value by Series"}),
	)

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, m := range metrics {
		key := m.Name
		if svc, ok := m.Tags["service"]; ok {
			key = m.Name + "/" + svc
		}
		sums[key] += m.Value
		counts[key]++
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make([]opts.BarData, len(keys))
	for i, k := range keys {
		data[i] = opts.BarData{Value: sums[k] / float64(counts[k])}
	}
	bar.SetXAxis(keys).AddSeries("mean", data)
	return bar
}

// logLevelPie shows how log volume splits across levels.
func logLevelPie(logs []incident.LogEntry) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Log Level Distribution"}),
	)

	counts := map[string]int{}
	for _, l := range logs {
		counts[strings.ToUpper(l.Level)]++
	}
	levels := make([]string, 0, len(counts))
	for lvl := range counts {
		levels = append(levels, lvl)
	}
	sort.Strings(levels)

	data := make([]opts.PieData, len(levels))
	for i, lvl := range levels {
		data[i] = opts.PieData{Name: lvl, Value: counts[lvl]}
	}
	pie.AddSeries("levels", data)
	return pie
}

// levelRank maps log levels to a numeric Y axis for the timeline.
var levelRank = map[string]int{
	"DEBUG":    1,
	"INFO":     2,
	"WARNING":  3,
	"ERROR":    4,
	"FATAL":    5,
	"CRITICAL": 5,
	"FAILED":   4,
}

// logTimeline plots each log event at its level rank, one series per source.
// Gaps are filled with "-" so ECharts skips them.
func logTimeline(logs []incident.LogEntry) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Log Timeline"}),
	)

	sorted := make([]incident.LogEntry, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	xs := make([]string, len(sorted))
	sources := map[string]bool{}
	for i, l := range sorted {
		xs[i] = l.Timestamp.UTC().Format(chartTimeFormat)
		sources[l.Source] = true
	}
	names := make([]string, 0, len(sources))
	for s := range sources {
		names = append(names, s)
	}
	sort.Strings(names)

	scatter.SetXAxis(xs)
	for _, name := range names {
		data := make([]opts.ScatterData, len(sorted))
		for i, l := range sorted {
			if l.Source != name {
				data[i] = opts.ScatterData{Value: "-"}
				continue
			}
			data[i] = opts.ScatterData{Value: levelRank[strings.ToUpper(l.Level)]}
		}
		scatter.AddSeries(name, data)
	}
	return scatter
}

// alignSeries builds a shared time axis and per-series value slices aligned
// to it. Series missing a timestamp carry "-" entries on the line chart, but
// metric series in practice share sampling times, so values are matched by
// exact timestamp.
func alignSeries(metrics []incident.Metric) ([]string, map[string][]interface{}, []string) {
	type point struct {
		ts    time.Time
		value float64
	}
	series := map[string][]point{}
	tsSet := map[time.Time]bool{}
	for _, m := range metrics {
		key := m.Name
		if svc, ok := m.Tags["service"]; ok {
			key = m.Name + "/" + svc
		}
		series[key] = append(series[key], point{m.Timestamp, m.Value})
		tsSet[m.Timestamp] = true
	}

	timestamps := make([]time.Time, 0, len(tsSet))
	for ts := range tsSet {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	xs := make([]string, len(timestamps))
	index := map[time.Time]int{}
	for i, ts := range timestamps {
		xs[i] = ts.UTC().Format(chartTimeFormat)
		index[ts] = i
	}

	keys := make([]string, 0, len(series))
	aligned := map[string][]interface{}{}
	for key, points := range series {
		keys = append(keys, key)
		values := make([]interface{}, len(timestamps))
		for i := range values {
			values[i] = "-"
		}
		for _, p := range points {
			values[index[p.ts]] = p.value
		}
		aligned[key] = values
	}
	sort.Strings(keys)

	return keys, aligned, xs
}
