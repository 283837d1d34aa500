// Package llm defines the client interfaces for the hosted inference endpoint.
package llm

import "context"

// Client is a minimal interface for making text completion calls.
// Implementations provide the actual HTTP transport to a specific provider.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// VisionClient can describe an image (e.g., a dashboard screenshot).
type VisionClient interface {
	DescribeImage(ctx context.Context, prompt, mediaType string, data []byte) (string, error)
}

// Embedder generates vector embeddings from text, used for
// similar-incident recall.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
