// Package model defines the chat-model client used by LLM-backed
// collaborators, with adapters for Google Gemini, OpenAI and Anthropic.
//
// Clients are constructed once by the application and injected where they
// are needed; nothing in this package keeps process-wide state.
package model

import "context"

// ChatModel sends a conversation to a language model and returns its reply.
// Implementations must be safe for concurrent use.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ChatOut is a model reply.
type ChatOut struct {
	Text  string
	Usage Usage
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Options are shared by the provider adapters.
type Options struct {
	// Model overrides the provider's default model name.
	Model string

	// JSON asks the provider to reply with a single JSON object where it
	// supports a structured output mode.
	JSON bool

	// MaxTokens bounds the reply length; zero uses the adapter default.
	MaxTokens int64

	// Temperature is passed through when non-nil.
	Temperature *float64
}

// SplitSystem separates system messages from the rest of the conversation,
// joining multiple system messages with blank lines. Providers that take the
// system prompt out of band use it.
func SplitSystem(messages []Message) (system string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
