// Package server provides the SRE Copilot HTTP API and dashboard.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/config"
	"github.com/Jencheng1/sre-copilot/internal/dashboard"
	"github.com/Jencheng1/sre-copilot/internal/incident"
	"github.com/Jencheng1/sre-copilot/internal/logging"
	"github.com/Jencheng1/sre-copilot/internal/memory"
	"github.com/Jencheng1/sre-copilot/internal/notify"
	"github.com/Jencheng1/sre-copilot/internal/postmortem"
	"github.com/Jencheng1/sre-copilot/internal/scenario"
	"github.com/Jencheng1/sre-copilot/llm"
)

// Server is the SRE Copilot HTTP server.
type Server struct {
	config     *config.Config
	store      *incident.Store
	bus        *incident.EventBus
	llm        llm.Client
	vision     llm.VisionClient   // nil if the provider has no image support
	memory     *memory.Store      // nil if the provider has no embedder
	notifier   *notify.Fanout
	postmortem *postmortem.Client // nil if not configured
	renderer   *dashboard.Renderer
	scenarios  []scenario.Scenario
	router     chi.Router
	log        *slog.Logger
}

// New creates a Server with all dependencies resolved from the config.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logging.New("server")

	store, err := incident.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	client, vision, embedder, err := newLLMClients(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("inference provider configured", "provider", cfg.Provider)

	var mem *memory.Store
	if embedder != nil && cfg.MaxSimilarIncidents > 0 {
		mem = memory.New(embedder)
		log.Info("similar-incident recall enabled", "top_k", cfg.MaxSimilarIncidents)
	}

	var notifiers []notify.Notifier
	if cfg.SlackEnabled() {
		notifiers = append(notifiers, notify.NewSlack(cfg.SlackBotToken, cfg.SlackChannel))
		log.Info("slack notifications enabled", "channel", cfg.SlackChannel)
	}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn("telegram notifier disabled", "error", err)
		} else {
			notifiers = append(notifiers, tg)
			log.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
		}
	}

	var pm *postmortem.Client
	if cfg.PostmortemEnabled() {
		pm, err = postmortem.NewClient(cfg.GitHubToken, cfg.PostmortemRepo)
		if err != nil {
			return nil, fmt.Errorf("initializing postmortem client: %w", err)
		}
		log.Info("postmortem issues enabled", "repo", cfg.PostmortemRepo)
	}

	renderer, err := dashboard.New()
	if err != nil {
		return nil, err
	}

	scenarios, err := scenario.Load(cfg.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("loading scenarios: %w", err)
	}

	s := &Server{
		config:     cfg,
		store:      store,
		bus:        incident.NewEventBus(),
		llm:        client,
		vision:     vision,
		memory:     mem,
		notifier:   notify.NewFanout(notifiers...),
		postmortem: pm,
		renderer:   renderer,
		scenarios:  scenarios,
		log:        log,
	}
	s.router = s.buildRouter()
	return s, nil
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.ServerAddr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("server listening", "addr", s.config.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return s.store.Close()
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyses", s.handleCreateAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Post("/analyses/sample", s.handleAnalyzeSample)
		r.Post("/analyses/scenario/{name}", s.handleAnalyzeScenario)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/analyses/{id}/events", s.handleAnalysisEvents)

		r.Post("/analyze/metrics", s.handleAnalyzeMetrics)
		r.Post("/analyze/logs", s.handleAnalyzeLogs)
		r.Post("/analyze/image", s.handleAnalyzeImage)
	})

	// Dashboard pages.
	r.Get("/", s.handleIndex)
	r.Get("/analyses/{id}", s.handleAnalysisPage)
	r.Get("/analyses/{id}/charts/metrics", s.handleMetricsChart)
	r.Get("/analyses/{id}/charts/logs", s.handleLogsChart)
	r.Get("/architecture", s.handleArchitecture)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

// logRequests logs one line per request through the component logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// StartAnalysis persists the incident, creates an analysis record, and runs
// the pipeline in the background. This is the shared entry point for the
// HTTP API, the sample trigger, and scenario runs.
func (s *Server) StartAnalysis(inc *incident.Incident) (*incident.Analysis, error) {
	if err := incident.Validate(inc); err != nil {
		return nil, err
	}
	if err := s.store.CreateIncident(inc); err != nil {
		return nil, fmt.Errorf("storing incident: %w", err)
	}

	now := time.Now().UTC()
	a := &incident.Analysis{
		ID:         uuid.New().String()[:8],
		IncidentID: inc.ID,
		Status:     incident.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateAnalysis(a); err != nil {
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	go s.runAnalysis(a, inc)
	return a, nil
}

// runAnalysis executes the full pipeline for one analysis in the background.
func (s *Server) runAnalysis(a *incident.Analysis, inc *incident.Incident) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.AnalysisTimeout)
	defer cancel()

	a.Status = incident.StatusRunning
	s.store.UpdateAnalysis(a)
	s.emitEvent(a.ID, "status", fmt.Sprintf("Analyzing incident %s...", inc.ID))

	similarContext := s.recallSimilar(ctx, inc)
	if similarContext != "" {
		s.emitEvent(a.ID, "status", "Found similar past incidents")
	}

	an := analyzer.New(s.llm, s.vision)
	an.OnStage = func(msg string) { s.emitEvent(a.ID, "status", msg) }
	res, err := an.AnalyzeIncident(ctx, inc, similarContext)
	if err != nil {
		s.failAnalysis(a, err.Error())
		return
	}

	a.Status = incident.StatusComplete
	a.RootCause = res.RootCause
	a.Impact = res.Impact
	a.KeyFindings = res.KeyFindings
	a.Recommendations = res.Recommendations
	if res.Metrics != nil {
		a.MetricInsights = res.Metrics.Insights
	}
	if res.Logs != nil {
		a.LogInsights = res.Logs.Insights
	}
	if err := s.store.UpdateAnalysis(a); err != nil {
		s.log.Error("storing analysis result", "analysis", a.ID, "error", err)
	}
	s.emitEvent(a.ID, "done", a.ID)

	if s.memory != nil && res.RootCause != nil {
		if err := s.memory.Add(ctx, inc, res.RootCause.Description); err != nil {
			s.log.Warn("recording incident memory", "incident", inc.ID, "error", err)
		}
	}
	if s.notifier.Enabled() {
		s.notifier.Notify(ctx, inc, res)
	}
	if s.postmortem != nil {
		url, err := s.postmortem.FileIssue(ctx, inc, res)
		if err != nil {
			s.log.Warn("filing postmortem issue", "incident", inc.ID, "error", err)
		} else {
			s.emitEvent(a.ID, "status", "Postmortem issue filed: "+url)
		}
	}
}

// recallSimilar returns prompt context describing past incidents similar to
// this one. Empty when recall is disabled or nothing matches.
func (s *Server) recallSimilar(ctx context.Context, inc *incident.Incident) string {
	if s.memory == nil || s.memory.Count() == 0 {
		return ""
	}
	matches, err := s.memory.Query(ctx, inc, s.config.MaxSimilarIncidents)
	if err != nil {
		s.log.Warn("querying incident memory", "incident", inc.ID, "error", err)
		return ""
	}
	return memory.FormatContext(matches)
}

func (s *Server) failAnalysis(a *incident.Analysis, errMsg string) {
	s.log.Error("analysis failed", "analysis", a.ID, "error", errMsg)
	a.Status = incident.StatusError
	a.Error = errMsg
	s.store.UpdateAnalysis(a)
	s.emitEvent(a.ID, "error", errMsg)
}

func (s *Server) emitEvent(analysisID, eventType, data string) {
	event := &incident.Event{
		AnalysisID: analysisID,
		Type:       eventType,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AddEvent(event); err != nil {
		s.log.Error("storing event", "analysis", analysisID, "error", err)
	}
	s.bus.Publish(analysisID, event)
}
