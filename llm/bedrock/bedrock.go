// Package bedrock implements llm.Client, llm.VisionClient, and llm.Embedder
// on top of the AWS Bedrock runtime (InvokeModel). Text and vision calls use
// the Anthropic messages schema; embeddings use Amazon Titan.
package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// anthropicVersion is the schema version Bedrock requires for Claude models.
const anthropicVersion = "bedrock-2023-05-31"

// invoker is the slice of the Bedrock runtime API the client uses.
// bedrockruntime.Client satisfies it; tests substitute a fake.
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Options configures the Bedrock client. Empty credential fields fall back to
// the AWS SDK default chain (environment, shared config, instance role).
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// ModelID is the text model (default claude-3-sonnet).
	ModelID string
	// VisionModelID is the image model; defaults to ModelID.
	VisionModelID string
	// EmbedModelID is the embeddings model (default titan-embed-text-v2).
	EmbedModelID string
}

// Client calls hosted models through the Bedrock runtime.
type Client struct {
	runtime       invoker
	modelID       string
	visionModelID string
	embedModelID  string
}

// New creates a Bedrock client, resolving AWS credentials from the
// environment unless static keys are given.
func New(ctx context.Context, opts Options) (*Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	modelID := opts.ModelID
	if modelID == "" {
		modelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	visionModelID := opts.VisionModelID
	if visionModelID == "" {
		visionModelID = modelID
	}
	embedModelID := opts.EmbedModelID
	if embedModelID == "" {
		embedModelID = "amazon.titan-embed-text-v2:0"
	}

	return &Client{
		runtime:       bedrockruntime.NewFromConfig(cfg),
		modelID:       modelID,
		visionModelID: visionModelID,
		embedModelID:  embedModelID,
	}, nil
}

// --- Anthropic messages schema ---

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// textRequestBody builds the InvokeModel body for a text completion.
func textRequestBody(system, user string) ([]byte, error) {
	return json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        4096,
		System:           system,
		Messages: []message{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: user}}},
		},
	})
}

// imageRequestBody builds the InvokeModel body for a vision prompt.
func imageRequestBody(prompt, mediaType string, data []byte) ([]byte, error) {
	return json.Marshal(messagesRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        4096,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: "image",
						Source: &imageSource{
							Type:      "base64",
							MediaType: mediaType,
							Data:      base64.StdEncoding.EncodeToString(data),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	})
}

// Complete sends a text prompt through InvokeModel and returns the first
// text block of the response.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := textRequestBody(system, user)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	return c.invokeMessages(ctx, c.modelID, body)
}

// DescribeImage sends a vision prompt with an attached image.
func (c *Client) DescribeImage(ctx context.Context, prompt, mediaType string, data []byte) (string, error) {
	body, err := imageRequestBody(prompt, mediaType, data)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	return c.invokeMessages(ctx, c.visionModelID, body)
}

func (c *Client) invokeMessages(ctx context.Context, modelID string, body []byte) (string, error) {
	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock API: %w", err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	for _, blk := range resp.Content {
		if blk.Type == "text" {
			return blk.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// Embed generates a Titan text embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(map[string]string{"inputText": text})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.embedModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock API: %w", err)
	}

	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return resp.Embedding, nil
}
