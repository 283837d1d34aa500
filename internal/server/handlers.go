package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/dashboard"
	"github.com/Jencheng1/sre-copilot/internal/incident"
	"github.com/Jencheng1/sre-copilot/internal/scenario"
)

// maxImageBytes bounds uploaded screenshots.
const maxImageBytes = 10 << 20

// --- Request/Response types ---

type createAnalysisResponse struct {
	ID         string `json:"id"`
	IncidentID string `json:"incident_id"`
	Status     string `json:"status"`
}

type analyzeMetricsRequest struct {
	Metrics []incident.Metric `json:"metrics"`
}

type analyzeLogsRequest struct {
	Logs []incident.LogEntry `json:"logs"`
}

type analyzeImageResponse struct {
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- Analysis lifecycle handlers ---

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var inc incident.Incident
	if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := incident.Validate(&inc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.StartAnalysis(&inc)
	if err != nil {
		s.log.Error("creating analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create analysis")
		return
	}

	writeJSON(w, http.StatusCreated, createAnalysisResponse{
		ID:         a.ID,
		IncidentID: a.IncidentID,
		Status:     string(a.Status),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.store.ListAnalyses()
	if err != nil {
		s.log.Error("listing analyses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if analyses == nil {
		analyses = []*incident.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAnalysis(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleAnalyzeSample generates the built-in demo incident and analyzes it.
func (s *Server) handleAnalyzeSample(w http.ResponseWriter, r *http.Request) {
	a, err := s.StartAnalysis(scenario.Sample())
	if err != nil {
		s.log.Error("starting sample analysis", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}
	s.respondStarted(w, r, a)
}

// handleAnalyzeScenario runs a named scenario from the scenario directory.
func (s *Server) handleAnalyzeScenario(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, sc := range s.scenarios {
		if sc.Name != name {
			continue
		}
		inc := sc.Incident
		a, err := s.StartAnalysis(&inc)
		if err != nil {
			s.log.Error("starting scenario analysis", "scenario", name, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start analysis")
			return
		}
		s.respondStarted(w, r, a)
		return
	}
	writeError(w, http.StatusNotFound, "scenario not found")
}

// respondStarted redirects browser form posts to the analysis page and
// answers API clients with JSON.
func (s *Server) respondStarted(w http.ResponseWriter, r *http.Request, a *incident.Analysis) {
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusCreated, createAnalysisResponse{
			ID:         a.ID,
			IncidentID: a.IncidentID,
			Status:     string(a.Status),
		})
		return
	}
	http.Redirect(w, r, "/analyses/"+a.ID, http.StatusSeeOther)
}

func (s *Server) handleAnalysisEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetAnalysis(id); err != nil {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before replaying history so events emitted during the
	// replay are not lost. Replayed IDs are tracked so the live stream
	// skips anything the replay already delivered.
	ch := s.bus.Subscribe(id)
	defer s.bus.Unsubscribe(id, ch)

	var lastID int64
	events, _ := s.store.GetEvents(id, 0)
	for _, e := range events {
		writeSSE(w, e)
		lastID = e.ID
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.ID <= lastID {
				continue
			}
			writeSSE(w, event)
			flusher.Flush()
		}
	}
}

// --- Synchronous analysis handlers ---

func (s *Server) handleAnalyzeMetrics(w http.ResponseWriter, r *http.Request) {
	var req analyzeMetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Metrics) == 0 {
		writeError(w, http.StatusBadRequest, "metrics are required")
		return
	}
	for i := range req.Metrics {
		if err := incident.ValidateMetric(&req.Metrics[i]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := analyzer.New(s.llm, s.vision).AnalyzeMetrics(r.Context(), req.Metrics)
	if err != nil {
		s.log.Error("metric analysis", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAnalyzeLogs(w http.ResponseWriter, r *http.Request) {
	var req analyzeLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Logs) == 0 {
		writeError(w, http.StatusBadRequest, "logs are required")
		return
	}
	for i := range req.Logs {
		if err := incident.ValidateLog(&req.Logs[i]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := analyzer.New(s.llm, s.vision).AnalyzeLogs(r.Context(), req.Logs)
	if err != nil {
		s.log.Error("log analysis", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyzeImage accepts a multipart upload with an "image" file and an
// optional "question" field.
func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	// Read one byte past the limit to tell "exactly at" from "over".
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading image")
		return
	}
	if len(data) > maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image exceeds the 10 MB limit")
		return
	}
	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "image/png"
	}

	desc, err := analyzer.New(s.llm, s.vision).DescribeImage(r.Context(), r.FormValue("question"), mediaType, data)
	if err != nil {
		s.log.Error("image analysis", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analyzeImageResponse{Description: desc})
}

// --- Dashboard handlers ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.store.ListAnalyses()
	if err != nil {
		http.Error(w, "failed to list analyses", http.StatusInternalServerError)
		return
	}
	names := make([]string, len(s.scenarios))
	for i, sc := range s.scenarios {
		names[i] = sc.Name
	}
	if err := s.renderer.Index(w, dashboard.IndexData{Analyses: analyses, Scenarios: names}); err != nil {
		s.log.Error("rendering index", "error", err)
	}
}

func (s *Server) handleAnalysisPage(w http.ResponseWriter, r *http.Request) {
	a, inc, ok := s.analysisWithIncident(w, r)
	if !ok {
		return
	}
	if err := s.renderer.Analysis(w, dashboard.AnalysisData{Analysis: a, Incident: inc}); err != nil {
		s.log.Error("rendering analysis page", "analysis", a.ID, "error", err)
	}
}

func (s *Server) handleMetricsChart(w http.ResponseWriter, r *http.Request) {
	_, inc, ok := s.analysisWithIncident(w, r)
	if !ok {
		return
	}
	if err := dashboard.MetricsPage(inc).Render(w); err != nil {
		s.log.Error("rendering metrics chart", "incident", inc.ID, "error", err)
	}
}

func (s *Server) handleLogsChart(w http.ResponseWriter, r *http.Request) {
	_, inc, ok := s.analysisWithIncident(w, r)
	if !ok {
		return
	}
	if err := dashboard.LogsPage(inc).Render(w); err != nil {
		s.log.Error("rendering logs chart", "incident", inc.ID, "error", err)
	}
}

func (s *Server) handleArchitecture(w http.ResponseWriter, r *http.Request) {
	if err := s.renderer.Architecture(w); err != nil {
		s.log.Error("rendering architecture page", "error", err)
	}
}

func (s *Server) analysisWithIncident(w http.ResponseWriter, r *http.Request) (*incident.Analysis, *incident.Incident, bool) {
	a, err := s.store.GetAnalysis(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, nil, false
	}
	inc, err := s.store.GetIncident(a.IncidentID)
	if err != nil {
		http.NotFound(w, r)
		return nil, nil, false
	}
	return a, inc, true
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeSSE(w http.ResponseWriter, event *incident.Event) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Type, string(data))
}
