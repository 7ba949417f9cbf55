package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"interview-platform/config"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAICompleter talks to OpenAI or an Azure OpenAI deployment.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAICompleter(cfg config.LLMConfig) *OpenAICompleter {
	return &OpenAICompleter{
		client:      openai.NewClient(cfg.APIKey),
		model:       modelOrDefault(cfg.Model, defaultOpenAIModel),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// NewAzureOpenAICompleter routes every request to the configured deployment.
func NewAzureOpenAICompleter(cfg config.LLMConfig) *OpenAICompleter {
	azure := openai.DefaultAzureConfig(cfg.APIKey, cfg.Azure.Endpoint)
	if cfg.Azure.APIVersion != "" {
		azure.APIVersion = cfg.Azure.APIVersion
	}
	model := modelOrDefault(cfg.Model, defaultOpenAIModel)
	deployment := modelOrDefault(cfg.Azure.Deployment, model)
	azure.AzureModelMapperFunc = func(string) string { return deployment }

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(azure),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return content, nil
}

func (c *OpenAICompleter) Close() error { return nil }
