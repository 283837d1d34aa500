// Package memory recalls past incidents that resemble the one under analysis.
// It stores incident summary embeddings and retrieves the closest matches to
// inject as context when a new analysis starts.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Jencheng1/sre-copilot/internal/incident"
	"github.com/Jencheng1/sre-copilot/llm"
)

// Summary is a stored incident summary with its embedding.
type Summary struct {
	IncidentID string
	Title      string
	Severity   string
	RootCause  string
	Embedding  []float64
	CreatedAt  time.Time
}

// Match is a retrieval result with its similarity score.
type Match struct {
	Summary    Summary
	Similarity float64
}

// Store keeps incident embeddings in memory and answers nearest-neighbor
// queries over them.
type Store struct {
	mu        sync.RWMutex
	summaries []Summary
	embedder  llm.Embedder
}

// New creates a memory Store backed by the given embedder.
func New(embedder llm.Embedder) *Store {
	return &Store{embedder: embedder}
}

// Add stores a completed incident analysis so later incidents can recall it.
func (s *Store) Add(ctx context.Context, inc *incident.Incident, rootCause string) error {
	text := summaryText(inc.Title, inc.Description, rootCause)
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}

	summary := Summary{
		IncidentID: inc.ID,
		Title:      inc.Title,
		Severity:   inc.Severity,
		RootCause:  rootCause,
		Embedding:  embedding,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.summaries = append(s.summaries, summary)
	s.mu.Unlock()

	return nil
}

// Query retrieves the top-k stored incidents most similar to the given one.
// The incident itself is excluded so re-analysis does not match its own
// earlier summary.
func (s *Store) Query(ctx context.Context, inc *incident.Incident, topK int) ([]Match, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, summaryText(inc.Title, inc.Description, ""))
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, sum := range s.summaries {
		if sum.IncidentID == inc.ID {
			continue
		}
		sim := cosineSimilarity(queryEmbedding, sum.Embedding)
		matches = append(matches, Match{Summary: sum, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// Count returns the total number of stored summaries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.summaries)
}

// FormatContext renders matches as prompt context for the analyzer.
func FormatContext(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	result := ""
	for i, m := range matches {
		result += fmt.Sprintf("%d. %s [%s] %s (similarity: %.2f)\n   Root cause: %s\n",
			i+1, m.Summary.IncidentID, m.Summary.Severity, m.Summary.Title,
			m.Similarity, truncate(m.Summary.RootCause, 200))
	}
	return result
}

func summaryText(title, description, rootCause string) string {
	text := fmt.Sprintf("Incident: %s\n%s", title, description)
	if rootCause != "" {
		text += fmt.Sprintf("\nRoot cause: %s", rootCause)
	}
	return text
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
