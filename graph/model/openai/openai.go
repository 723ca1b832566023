// Package openai adapts the OpenAI chat completions API to model.ChatModel.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/NishanthN27/Final-Year/graph/model"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gpt-4o-mini"

// ChatModel calls OpenAI chat completions. Transient failures are retried
// a few times with a growing delay.
type ChatModel struct {
	modelName  string
	client     completionClient
	maxRetries int
	retryDelay time.Duration
}

// completionClient is the slice of the SDK the adapter needs; tests replace
// it.
type completionClient interface {
	complete(ctx context.Context, params sdk.ChatCompletionNewParams) (*sdk.ChatCompletion, error)
}

// NewChatModel builds a client for apiKey. The SDK client is created once
// and reused for every call.
func NewChatModel(apiKey string, opts model.Options) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	name := opts.Model
	if name == "" {
		name = DefaultModel
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		modelName:  name,
		client:     &sdkClient{client: &client, opts: opts},
		maxRetries: 2,
		retryDelay: time.Second,
	}, nil
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := sdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		completion, err := m.client.complete(ctx, params)
		if err == nil {
			return convertResponse(completion)
		}
		lastErr = err
		if !isTransientError(err) || attempt >= m.maxRetries {
			break
		}
		select {
		case <-time.After(m.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}
	return model.ChatOut{}, fmt.Errorf("openai chat completion: %w", lastErr)
}

func convertMessages(messages []model.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, sdk.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, sdk.AssistantMessage(msg.Content))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

func convertResponse(completion *sdk.ChatCompletion) (model.ChatOut, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return model.ChatOut{}, errors.New("openai returned no choices")
	}
	return model.ChatOut{
		Text: completion.Choices[0].Message.Content,
		Usage: model.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}, nil
}

func isTransientError(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection reset", "temporary", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

type sdkClient struct {
	client *sdk.Client
	opts   model.Options
}

func (c *sdkClient) complete(ctx context.Context, params sdk.ChatCompletionNewParams) (*sdk.ChatCompletion, error) {
	if c.opts.JSON {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: sdk.Ptr(shared.NewResponseFormatJSONObjectParam()),
		}
	}
	if c.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(c.opts.MaxTokens)
	}
	if c.opts.Temperature != nil {
		params.Temperature = sdk.Float(*c.opts.Temperature)
	}
	return c.client.Chat.Completions.New(ctx, params)
}
