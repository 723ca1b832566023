// Package google adapts Google Gemini to model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/NishanthN27/Final-Year/graph/model"
)

// Default models. The flash model suits per-answer evaluation; the pro
// model is used for planning and reports when configured.
const (
	DefaultModel = "gemini-1.5-flash"
	ProModel     = "gemini-1.5-pro"
)

// ChatModel calls the Gemini API through one long-lived client.
type ChatModel struct {
	modelName string
	opts      model.Options
	client    contentClient
	closer    func() error
}

type contentClient interface {
	generate(ctx context.Context, system string, parts []genai.Part) (*genai.GenerateContentResponse, error)
}

// SafetyFilterError is returned when Gemini blocks the prompt or reply.
type SafetyFilterError struct {
	Reason string
}

func (e *SafetyFilterError) Error() string {
	return "gemini blocked content: " + e.Reason
}

// NewChatModel creates the Gemini client. Call Close when done.
func NewChatModel(ctx context.Context, apiKey string, opts model.Options) (*ChatModel, error) {
	if apiKey == "" {
		return nil, errors.New("google API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}
	m := newChatModel(nil, opts)
	m.client = &sdkClient{client: client, modelName: m.modelName, opts: opts}
	m.closer = client.Close
	return m, nil
}

func newChatModel(client contentClient, opts model.Options) *ChatModel {
	name := opts.Model
	if name == "" {
		name = DefaultModel
	}
	return &ChatModel{modelName: name, opts: opts, client: client}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	system, rest := model.SplitSystem(messages)
	resp, err := m.client.generate(ctx, system, convertMessages(rest))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}
	return convertResponse(resp)
}

// Close releases the underlying client.
func (m *ChatModel) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer()
}

func convertMessages(messages []model.Message) []genai.Part {
	parts := make([]genai.Part, 0, len(messages))
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	if resp == nil {
		return model.ChatOut{}, errors.New("nil response from Google API")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return model.ChatOut{}, &SafetyFilterError{Reason: resp.PromptFeedback.BlockReason.String()}
	}

	out := model.ChatOut{}
	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return out, nil
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return model.ChatOut{}, &SafetyFilterError{Reason: candidate.FinishReason.String()}
	}
	if candidate.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(string(t))
		}
	}
	out.Text = text.String()
	return out, nil
}

type sdkClient struct {
	client    *genai.Client
	modelName string
	opts      model.Options
}

func (c *sdkClient) generate(ctx context.Context, system string, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	gm := c.client.GenerativeModel(c.modelName)
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if c.opts.JSON {
		gm.ResponseMIMEType = "application/json"
	}
	if c.opts.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(c.opts.MaxTokens))
	}
	if c.opts.Temperature != nil {
		gm.SetTemperature(float32(*c.opts.Temperature))
	}
	return gm.GenerateContent(ctx, parts...)
}
