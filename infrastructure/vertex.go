package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vertex "cloud.google.com/go/vertexai/genai"

	"interview-platform/config"
)

const defaultVertexModel = "gemini-2.0-flash-001"

// VertexCompleter calls Gemini models hosted on Vertex AI. Credentials come
// from the ambient Google application default credentials.
type VertexCompleter struct {
	client      *vertex.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewVertexCompleter(ctx context.Context, cfg config.LLMConfig) (*VertexCompleter, error) {
	client, err := vertex.NewClient(ctx, cfg.Vertex.Project, cfg.Vertex.Location)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}
	return &VertexCompleter{
		client:      client,
		model:       modelOrDefault(cfg.Model, defaultVertexModel),
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (v *VertexCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	model := v.client.GenerativeModel(v.model)
	model.SystemInstruction = &vertex.Content{Parts: []vertex.Part{vertex.Text(system)}}
	model.SetTemperature(v.temperature)
	model.SetMaxOutputTokens(v.maxTokens)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, vertex.Text(user))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(vertex.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("vertex returned no text")
	}
	return output, nil
}

func (v *VertexCompleter) Close() error {
	return v.client.Close()
}
