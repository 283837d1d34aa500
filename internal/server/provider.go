package server

import (
	"context"
	"fmt"

	"github.com/Jencheng1/sre-copilot/internal/config"
	"github.com/Jencheng1/sre-copilot/llm"
	"github.com/Jencheng1/sre-copilot/llm/anthropic"
	"github.com/Jencheng1/sre-copilot/llm/bedrock"
	"github.com/Jencheng1/sre-copilot/llm/openai"
)

// newLLMClients builds the model clients for the configured provider.
// vision is nil when the provider has no image support, embedder when it has
// no embedding model.
func newLLMClients(ctx context.Context, cfg *config.Config) (client llm.Client, vision llm.VisionClient, embedder llm.Embedder, err error) {
	switch cfg.Provider {
	case config.ProviderBedrock:
		c, err := bedrock.New(ctx, bedrock.Options{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			ModelID:         cfg.BedrockModelID,
			VisionModelID:   cfg.BedrockVisionModelID,
			EmbedModelID:    cfg.BedrockEmbedModelID,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("initializing bedrock client: %w", err)
		}
		return c, c, c, nil

	case config.ProviderAnthropic:
		c := anthropic.New(cfg.AnthropicAPIKey, "")
		return c, c, nil, nil

	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, ""), nil, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
