package dashboard

import "github.com/emicklei/dot"

// SystemArchitectureDOT renders the system overview as a DOT graph: inputs
// feed per-signal analyzers, which converge on the root cause and impact
// synthesis backed by the hosted model.
func SystemArchitectureDOT() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "TB")

	inputs := cluster(g, "Input Layer", "lightpink")
	incidentData := inputs.Node("I1").Label("Incident Data")
	metricsData := inputs.Node("I2").Label("Metrics Data")
	logData := inputs.Node("I3").Label("Log Data")
	images := inputs.Node("I4").Label("Images")

	agents := cluster(g, "Analyzer Layer", "lightblue")
	incidentAnalyzer := agents.Node("A1").Label("Incident Analyzer")
	metricAnalyzer := agents.Node("A2").Label("Metric Analyzer")
	logAnalyzer := agents.Node("A3").Label("Log Analyzer")
	imageAnalyzer := agents.Node("A4").Label("Image Analyzer")
	rootCause := agents.Node("B1").Label("Root Cause Analysis")
	impact := agents.Node("B2").Label("Impact Analysis")

	model := cluster(g, "Model Layer", "lightgreen")
	claude := model.Node("C1").Label("Hosted Model")

	outputs := cluster(g, "Output Layer", "lightcoral")
	finalAnalysis := outputs.Node("D1").Label("Final Analysis")
	actionItems := outputs.Node("D2").Label("Action Items")

	g.Edge(incidentData, incidentAnalyzer)
	g.Edge(metricsData, metricAnalyzer)
	g.Edge(logData, logAnalyzer)
	g.Edge(images, imageAnalyzer)

	for _, a := range []dot.Node{incidentAnalyzer, metricAnalyzer, logAnalyzer, imageAnalyzer} {
		g.Edge(a, rootCause)
		g.Edge(a, impact)
	}

	g.Edge(rootCause, claude)
	g.Edge(impact, claude)
	g.Edge(claude, rootCause)
	g.Edge(claude, impact)

	g.Edge(rootCause, finalAnalysis)
	g.Edge(impact, finalAnalysis)
	g.Edge(finalAnalysis, actionItems)

	return g.String()
}

// AgentInteractionDOT renders the request sequence between the analyzers and
// the model.
func AgentInteractionDOT() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	user := g.Node("User")
	ia := g.Node("IA").Label("Incident Analyzer")
	ma := g.Node("MA").Label("Metric Analyzer")
	la := g.Node("LA").Label("Log Analyzer")
	model := g.Node("Model").Label("Hosted Model")
	analysis := g.Node("Analysis")

	g.Edge(user, ia, "Submit Incident")
	g.Edge(ia, ma, "Request Metrics Analysis")
	g.Edge(ma, model, "Analyze Metrics")
	g.Edge(model, ma, "Metrics Insights")
	g.Edge(ma, ia, "Metrics Analysis")
	g.Edge(ia, la, "Request Log Analysis")
	g.Edge(la, model, "Analyze Logs")
	g.Edge(model, la, "Log Insights")
	g.Edge(la, ia, "Log Analysis")
	g.Edge(ia, model, "Generate RCA")
	g.Edge(model, ia, "RCA Results")
	g.Edge(ia, analysis, "Combined Analysis")
	g.Edge(analysis, user, "Final RCA Report")

	return g.String()
}

// DataFlowDOT renders how each telemetry type reaches its processor.
func DataFlowDOT() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	sources := cluster(g, "Data Sources", "lightpink")
	text := sources.Node("D1").Label("Text Data")
	metrics := sources.Node("D2").Label("Metrics")
	logs := sources.Node("D3").Label("Logs")
	images := sources.Node("D4").Label("Images")

	processors := cluster(g, "Processors", "lightblue")
	textProc := processors.Node("P1").Label("Text Processor")
	metricProc := processors.Node("P2").Label("Metrics Processor")
	logProc := processors.Node("P3").Label("Log Processor")
	imageProc := processors.Node("P4").Label("Image Processor")

	g.Edge(text, textProc, "Incident Details")
	g.Edge(metrics, metricProc, "Time Series")
	g.Edge(logs, logProc, "Text")
	g.Edge(images, imageProc, "Visual")

	return g.String()
}

func cluster(g *dot.Graph, label, color string) *dot.Graph {
	sub := g.Subgraph(label, dot.ClusterOption{})
	sub.Attr("style", "filled")
	sub.Attr("color", color)
	return sub
}
