package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"interview-platform/config"
)

// Models tried in order after the configured one fails.
var geminiFallbackModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-flash-latest",
}

const pdfExtractionPrompt = `Extract ALL text content from this PDF document. Return ONLY the raw extracted text without any additional comments, formatting, or explanations. Include personal information, education history, work experience, skills and technologies, certifications, projects and achievements.`

// GeminiCompleter calls the Gemini API through the genai SDK.
type GeminiCompleter struct {
	client      *genai.Client
	models      []string
	temperature float32
	log         *zap.Logger
}

func NewGeminiCompleter(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (*GeminiCompleter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	models := []string{modelOrDefault(cfg.Model, geminiFallbackModels[0])}
	for _, m := range geminiFallbackModels {
		if m != models[0] {
			models = append(models, m)
		}
	}

	return &GeminiCompleter{
		client:      client,
		models:      models,
		temperature: cfg.Temperature,
		log:         log,
	}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
	}
	return g.generate(ctx, genai.Text(user), cfg)
}

// ReadPDF asks the model to transcribe a PDF the local extractor could not read.
func (g *GeminiCompleter) ReadPDF(ctx context.Context, data []byte) (string, error) {
	contents := []*genai.Content{{
		Role: string(genai.RoleUser),
		Parts: []*genai.Part{
			genai.NewPartFromText(pdfExtractionPrompt),
			genai.NewPartFromBytes(data, "application/pdf"),
		},
	}}
	return g.generate(ctx, contents, &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.1))})
}

func (g *GeminiCompleter) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	var lastErr error
	for _, model := range g.models {
		text, err := g.generateWithModel(ctx, model, contents, cfg)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.log.Warn("gemini model failed", zap.String("model", model), zap.Error(err))
		lastErr = err
	}
	return "", fmt.Errorf("all gemini models failed: %w", lastErr)
}

func (g *GeminiCompleter) generateWithModel(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini returned no text")
	}
	return output, nil
}

func (g *GeminiCompleter) Close() error { return nil }
