package commentary

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAI struct {
	client *openai.Client
	model  string
}

type OpenAIOption func(*openai.ClientConfig, *OpenAI)

// WithBaseURL points the client at another OpenAI compatible server.
func WithBaseURL(url string) OpenAIOption {
	return func(cfg *openai.ClientConfig, _ *OpenAI) { cfg.BaseURL = url }
}

func WithModel(model string) OpenAIOption {
	return func(_ *openai.ClientConfig, o *OpenAI) { o.model = model }
}

func NewOpenAI(key string, opts ...OpenAIOption) *OpenAI {
	cfg := openai.DefaultConfig(key)
	o := &OpenAI{model: openai.GPT3Dot5Turbo}
	for _, opt := range opts {
		opt(&cfg, o)
	}
	o.client = openai.NewClientWithConfig(cfg)
	return o
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Comment(ctx context.Context, pgn string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(pgn)},
		},
	})
	if err != nil {
		return "", &ProviderError{Provider: o.Name(), Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ProviderError{Provider: o.Name(), Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}
