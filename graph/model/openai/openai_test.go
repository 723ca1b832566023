package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	sdk "github.com/openai/openai-go"

	"github.com/NishanthN27/Final-Year/graph/model"
)

type fakeClient struct {
	errs   []error
	reply  *sdk.ChatCompletion
	params []sdk.ChatCompletionNewParams
}

func (f *fakeClient) complete(_ context.Context, params sdk.ChatCompletionNewParams) (*sdk.ChatCompletion, error) {
	f.params = append(f.params, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.reply, nil
}

func completion(text string) *sdk.ChatCompletion {
	return &sdk.ChatCompletion{
		Choices: []sdk.ChatCompletionChoice{{Message: sdk.ChatCompletionMessage{Content: text}}},
		Usage:   sdk.CompletionUsage{PromptTokens: 30, CompletionTokens: 7},
	}
}

func newTestModel(client completionClient) *ChatModel {
	return &ChatModel{modelName: DefaultModel, client: client, maxRetries: 2, retryDelay: time.Millisecond}
}

func TestNewChatModel(t *testing.T) {
	if _, err := NewChatModel("", model.Options{}); err == nil {
		t.Fatal("empty API key accepted")
	}
	m, err := NewChatModel("test-key", model.Options{})
	if err != nil {
		t.Fatalf("NewChatModel: %v", err)
	}
	if m.modelName != DefaultModel {
		t.Fatalf("model = %q", m.modelName)
	}
	m, _ = NewChatModel("test-key", model.Options{Model: "gpt-4o"})
	if m.modelName != "gpt-4o" {
		t.Fatalf("model = %q", m.modelName)
	}
}

func TestChat(t *testing.T) {
	client := &fakeClient{reply: completion(`{"score": 80}`)}
	out, err := newTestModel(client).Chat(context.Background(), []model.Message{
		model.System("Grade the answer."),
		model.User("Goroutines are cheap threads."),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != `{"score": 80}` || out.Usage.InputTokens != 30 || out.Usage.OutputTokens != 7 {
		t.Fatalf("out = %+v", out)
	}
	if len(client.params) != 1 || len(client.params[0].Messages) != 2 {
		t.Fatalf("params = %+v", client.params)
	}
	if client.params[0].Model != DefaultModel {
		t.Fatalf("model = %q", client.params[0].Model)
	}
}

func TestChatRetriesTransientErrors(t *testing.T) {
	client := &fakeClient{
		errs:  []error{errors.New("read: connection reset by peer"), errors.New("request timeout")},
		reply: completion("ok"),
	}
	out, err := newTestModel(client).Chat(context.Background(), []model.Message{model.User("q")})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != "ok" || len(client.params) != 3 {
		t.Fatalf("got %q after %d calls", out.Text, len(client.params))
	}
}

func TestChatGivesUp(t *testing.T) {
	denied := errors.New("invalid api key")
	client := &fakeClient{errs: []error{denied}}
	if _, err := newTestModel(client).Chat(context.Background(), nil); !errors.Is(err, denied) {
		t.Fatalf("got %v", err)
	}
	if len(client.params) != 1 {
		t.Fatalf("permanent error retried %d times", len(client.params)-1)
	}

	timeout := errors.New("timeout")
	client = &fakeClient{errs: []error{timeout, timeout, timeout, timeout}}
	if _, err := newTestModel(client).Chat(context.Background(), nil); !errors.Is(err, timeout) {
		t.Fatalf("got %v", err)
	}
	if len(client.params) != 3 {
		t.Fatalf("made %d calls, want 3", len(client.params))
	}
}

func TestChatNoChoices(t *testing.T) {
	client := &fakeClient{reply: &sdk.ChatCompletion{}}
	if _, err := newTestModel(client).Chat(context.Background(), nil); err == nil {
		t.Fatal("empty completion accepted")
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("context deadline: timeout"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("temporary failure in name resolution"), true},
		{errors.New("model not found"), false},
	}
	for _, tt := range tests {
		if got := isTransientError(tt.err); got != tt.want {
			t.Errorf("isTransientError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
