package commentary

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	GeminiFlash = "gemini-1.5-flash"
	GeminiPro   = "gemini-pro"
)

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, key, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: err}
	}
	if model == "" {
		model = GeminiFlash
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string {
	if g.model == GeminiPro {
		return ProviderGeminiOld
	}
	return ProviderGemini
}

// Comment sends the persona and the game as a single prompt.
func (g *Gemini) Comment(ctx context.Context, pgn string) (string, error) {
	prompt := SystemPrompt() + "\n\n" + UserPrompt(pgn)
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProviderError{Provider: g.Name(), Err: err}
	}
	text := responseText(resp)
	if text == "" {
		return "", &ProviderError{Provider: g.Name(), Err: ErrEmptyResponse}
	}
	return text, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
