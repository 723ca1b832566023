// Package anthropic adapts the Anthropic Messages API to model.ChatModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/NishanthN27/Final-Year/graph/model"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "claude-3-5-haiku-latest"

const defaultMaxTokens = 4096

// ChatModel calls the Anthropic Messages API.
type ChatModel struct {
	modelName string
	maxTokens int64
	json      bool
	client    messagesClient
}

type messagesClient interface {
	newMessage(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error)
}

// NewChatModel builds a client for apiKey.
func NewChatModel(apiKey string, opts model.Options) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	m := newChatModel(&sdkClient{client: &client}, opts)
	return m, nil
}

func newChatModel(client messagesClient, opts model.Options) *ChatModel {
	name := opts.Model
	if name == "" {
		name = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ChatModel{modelName: name, maxTokens: maxTokens, json: opts.JSON, client: client}
}

// Chat implements model.ChatModel. Anthropic has no JSON response mode, so
// with Options.JSON the system prompt asks for a bare JSON object instead.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, rest := model.SplitSystem(messages)
	if m.json {
		system = strings.TrimSpace(system + "\n\nRespond with a single JSON object and nothing else.")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(m.modelName),
		MaxTokens: m.maxTokens,
		Messages:  convertMessages(rest),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := m.client.newMessage(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic messages: %w", err)
	}
	return convertResponse(msg), nil
}

func convertMessages(messages []model.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := sdk.NewTextBlock(msg.Content)
		if msg.Role == model.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(block))
			continue
		}
		out = append(out, sdk.NewUserMessage(block))
	}
	return out
}

func convertResponse(msg *sdk.Message) model.ChatOut {
	if msg == nil {
		return model.ChatOut{}
	}
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return model.ChatOut{
		Text: text.String(),
		Usage: model.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}

type sdkClient struct {
	client *sdk.Client
}

func (c *sdkClient) newMessage(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error) {
	return c.client.Messages.New(ctx, params)
}
