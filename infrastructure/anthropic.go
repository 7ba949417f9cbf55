package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"interview-platform/config"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicCompleter(cfg config.LLMConfig) *AnthropicCompleter {
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     modelOrDefault(cfg.Model, defaultAnthropicModel),
		maxTokens: int64(cfg.MaxTokens),
	}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in anthropic response")
}

func (a *AnthropicCompleter) Close() error { return nil }
