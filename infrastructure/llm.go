package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"interview-platform/config"
)

// Completer sends one system+user prompt pair to a language model and
// returns the raw text of the reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Close() error
}

// NewCompleter builds the provider selected in cfg.
func NewCompleter(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (Completer, error) {
	log.Info("initialising language model", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))

	switch cfg.Provider {
	case "openai":
		return NewOpenAICompleter(cfg), nil
	case "azure":
		return NewAzureOpenAICompleter(cfg), nil
	case "gemini":
		return NewGeminiCompleter(ctx, cfg, log)
	case "vertex":
		return NewVertexCompleter(ctx, cfg)
	case "anthropic":
		return NewAnthropicCompleter(cfg), nil
	}
	return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
}

func modelOrDefault(model, fallback string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	return fallback
}
