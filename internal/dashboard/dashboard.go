// Package dashboard renders the browser UI: analysis pages, charts, and
// architecture diagrams.
package dashboard

import (
	"fmt"
	"html/template"
	"io"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// Renderer holds the parsed page templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the built-in templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"pct": func(c float64) string { return fmt.Sprintf("%.0f%%", c*100) },
	}
	tmpl, err := template.New("dashboard").Funcs(funcs).Parse(pageTemplates)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// IndexData feeds the landing page.
type IndexData struct {
	Analyses  []*incident.Analysis
	Scenarios []string
}

// AnalysisData feeds the analysis detail page.
type AnalysisData struct {
	Analysis *incident.Analysis
	Incident *incident.Incident
}

// ArchitectureData feeds the architecture page with DOT sources rendered
// client-side.
type ArchitectureData struct {
	System      string
	Interaction string
	DataFlow    string
}

// Index renders the landing page.
func (r *Renderer) Index(w io.Writer, data IndexData) error {
	return r.tmpl.ExecuteTemplate(w, "index", data)
}

// Analysis renders the detail page for one analysis.
func (r *Renderer) Analysis(w io.Writer, data AnalysisData) error {
	return r.tmpl.ExecuteTemplate(w, "analysis", data)
}

// Architecture renders the diagram page.
func (r *Renderer) Architecture(w io.Writer) error {
	return r.tmpl.ExecuteTemplate(w, "architecture", ArchitectureData{
		System:      SystemArchitectureDOT(),
		Interaction: AgentInteractionDOT(),
		DataFlow:    DataFlowDOT(),
	})
}

const pageTemplates = `
{{define "head"}}
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 1100px; padding: 0 1rem; color: #1a1a2e; }
h1, h2 { border-bottom: 1px solid #eee; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #eee; }
a { color: #0b5fff; text-decoration: none; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: 4px; font-size: .85rem; background: #eee; }
.badge.running { background: #fff3cd; }
.badge.complete { background: #d4edda; }
.badge.error { background: #f8d7da; }
.confidence { color: #666; font-size: .9rem; }
iframe { width: 100%; height: 480px; border: 1px solid #eee; border-radius: 6px; }
pre.err { background: #f8d7da; padding: 1rem; border-radius: 6px; white-space: pre-wrap; }
nav { margin-bottom: 1.5rem; }
nav a { margin-right: 1rem; }
</style>
{{end}}

{{define "nav"}}
<nav><a href="/">Analyses</a><a href="/architecture">Architecture</a></nav>
{{end}}

{{define "index"}}
<!DOCTYPE html>
<html><head><title>SRE Copilot</title>{{template "head"}}</head>
<body>
{{template "nav"}}
<h1>SRE Copilot</h1>
<form method="post" action="/api/analyses/sample">
<button type="submit">Analyze sample incident</button>
</form>
{{if .Scenarios}}
<h2>Scenarios</h2>
<ul>
{{range .Scenarios}}
<li><form method="post" action="/api/analyses/scenario/{{.}}"><button type="submit">{{.}}</button></form></li>
{{end}}
</ul>
{{end}}
<h2>Analyses</h2>
{{if .Analyses}}
<table>
<tr><th>Analysis</th><th>Incident</th><th>Status</th><th>Created</th></tr>
{{range .Analyses}}
<tr>
<td><a href="/analyses/{{.ID}}">{{.ID}}</a></td>
<td>{{.IncidentID}}</td>
<td><span class="badge {{.Status}}">{{.Status}}</span></td>
<td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No analyses yet.</p>
{{end}}
</body></html>
{{end}}

{{define "analysis"}}
<!DOCTYPE html>
<html><head><title>{{.Incident.Title}}</title>{{template "head"}}</head>
<body>
{{template "nav"}}
<h1>{{.Incident.Title}}</h1>
<p>
<span class="badge">{{.Incident.Severity}}</span>
<span class="badge {{.Analysis.Status}}">{{.Analysis.Status}}</span>
{{.Incident.ID}} · started {{.Incident.StartTime.Format "2006-01-02 15:04 MST"}}
</p>
{{if .Incident.Description}}<p>{{.Incident.Description}}</p>{{end}}
{{if .Analysis.Error}}<pre class="err">{{.Analysis.Error}}</pre>{{end}}

{{with .Analysis.RootCause}}
<h2>Root Cause</h2>
<p><strong>{{.Description}}</strong> <span class="confidence">{{pct .Confidence}} confidence</span></p>
{{if .Evidence}}<ul>{{range .Evidence}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}
{{with .Analysis.Impact}}
<h2>Impact</h2>
<p><strong>{{.Description}}</strong> <span class="confidence">{{pct .Confidence}} confidence</span></p>
{{if .Evidence}}<ul>{{range .Evidence}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}
{{if .Analysis.KeyFindings}}
<h2>Key Findings</h2>
<ul>{{range .Analysis.KeyFindings}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .Analysis.Recommendations}}
<h2>Recommendations</h2>
<ul>{{range .Analysis.Recommendations}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{if .Analysis.MetricInsights}}
<h2>Metric Insights</h2>
<ul>{{range .Analysis.MetricInsights}}<li>{{.Description}} <span class="confidence">{{pct .Confidence}}</span></li>{{end}}</ul>
{{end}}
{{if .Analysis.LogInsights}}
<h2>Log Insights</h2>
<ul>{{range .Analysis.LogInsights}}<li>{{.Description}} <span class="confidence">{{pct .Confidence}}</span></li>{{end}}</ul>
{{end}}

{{if not .Analysis.Status.Terminal}}
<h2>Progress</h2>
<ul id="progress"></ul>
<script>
var es = new EventSource("/api/analyses/{{.Analysis.ID}}/events");
es.addEventListener("status", function (e) {
  var li = document.createElement("li");
  li.textContent = JSON.parse(e.data).data;
  document.getElementById("progress").appendChild(li);
});
es.addEventListener("done", function () { es.close(); location.reload(); });
es.addEventListener("error", function (e) {
  if (e.data) { es.close(); location.reload(); }
});
</script>
{{end}}

{{if .Incident.Metrics}}
<h2>Metrics</h2>
<iframe src="/analyses/{{.Analysis.ID}}/charts/metrics"></iframe>
{{end}}
{{if .Incident.Logs}}
<h2>Logs</h2>
<iframe src="/analyses/{{.Analysis.ID}}/charts/logs"></iframe>
{{end}}
</body></html>
{{end}}

{{define "architecture"}}
<!DOCTYPE html>
<html><head><title>Architecture</title>{{template "head"}}
<script src="https://unpkg.com/@viz-js/viz@3.2.4/lib/viz-standalone.js"></script>
</head>
<body>
{{template "nav"}}
<h1>Architecture</h1>
<h2>System Overview</h2>
<div class="diagram" data-dot="{{.System}}"></div>
<h2>Agent Interactions</h2>
<div class="diagram" data-dot="{{.Interaction}}"></div>
<h2>Data Flow</h2>
<div class="diagram" data-dot="{{.DataFlow}}"></div>
<script>
Viz.instance().then(function (viz) {
  document.querySelectorAll(".diagram").forEach(function (el) {
    el.appendChild(viz.renderSVGElement(el.dataset.dot));
  });
});
</script>
</body></html>
{{end}}
`
