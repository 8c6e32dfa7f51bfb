// Package commentary asks a language model to coach a player through a game.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderGeminiOld = "gemini-1.0"
)

var (
	ErrUnknownProvider = errors.New("commentary: unknown provider")
	ErrMissingKey      = errors.New("commentary: missing api key")
	ErrEmptyResponse   = errors.New("commentary: empty response")
)

// Provider produces markdown commentary for a PGN.
type Provider interface {
	Name() string
	Comment(ctx context.Context, pgn string) (string, error)
}

// ProviderError is a failed upstream call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("commentary: %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

const persona = `Act as an experienced and inspiring chess coach whose focus is strategy.
Your analysis of a chess game in PGN format must be detailed and follow this structure:
1.  **Opening:** Briefly describe the opening that was played and the main idea behind it.
2.  **Key moments and main mistakes:** Pick 2 or 3 critical moves (mistakes or good moves) and explain the strategic plan behind the best continuation. Do not focus only on tactics but on the idea, with phrases like "Here you had the chance to start a kingside attack..." or "This move gave up control of important squares...".
3.  **Summary and advice:** Summarize what happened in the game and give one strategic piece of advice for future games.
Use Markdown formatting (bold with **, lists with *) to keep the answer clear and organized.`

// SystemPrompt is the coaching persona.
func SystemPrompt() string { return persona }

// UserPrompt wraps the game for the model.
func UserPrompt(pgn string) string {
	return "Please analyze the following game:\n" + strings.TrimSpace(pgn)
}

// Keys holds provider credentials, usually read from the environment.
type Keys struct {
	OpenAI string
	Gemini string
}

// New builds the named provider.
func New(ctx context.Context, name string, keys Keys) (Provider, error) {
	switch name {
	case ProviderOpenAI:
		if keys.OpenAI == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingKey)
		}
		return NewOpenAI(keys.OpenAI), nil
	case ProviderGemini, ProviderGeminiOld:
		if keys.Gemini == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingKey)
		}
		model := GeminiFlash
		if name == ProviderGeminiOld {
			model = GeminiPro
		}
		return NewGemini(ctx, keys.Gemini, model)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
