package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/store"
)

const game = "1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5"

type countingProvider struct {
	calls  int
	answer string
	err    error
}

func (p *countingProvider) Name() string { return "fake" }

func (p *countingProvider) Comment(ctx context.Context, pgn string) (string, error) {
	p.calls++
	return p.answer, p.err
}

func TestCachedProvider(t *testing.T) {
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	inner := &countingProvider{answer: "**nice**"}
	c := NewCached(inner, s, zerolog.Nop())

	for _, pgn := range []string{game, "  1. e4 e5\n2. Nf3 Nc6   3. Bc4 Bc5\n"} {
		got, err := c.Comment(context.Background(), pgn)
		if err != nil || got != "**nice**" {
			t.Fatalf("Comment() = %q, %v", got, err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 || c.HitRate() != 50 {
		t.Fatalf("hits = %d, misses = %d, rate = %v", hits, misses, c.HitRate())
	}
	if c.Name() != "fake" {
		t.Fatalf("Name() = %q", c.Name())
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	s, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	boom := errors.New("quota exceeded")
	inner := &countingProvider{err: boom}
	c := NewCached(inner, s, zerolog.Nop())
	for i := 0; i < 2; i++ {
		if _, err := c.Comment(context.Background(), game); !errors.Is(err, boom) {
			t.Fatalf("Comment() error = %v, want boom", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}
	if n, _ := s.Count(); n != 0 {
		t.Fatalf("store entries = %d, want 0", n)
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("openai", "1. e4  e5")
	if a != CacheKey("openai", "\n1. e4\te5\n") {
		t.Fatalf("whitespace changed the key")
	}
	if a == CacheKey("gemini", "1. e4 e5") {
		t.Fatalf("provider not part of the key")
	}
	if !strings.HasPrefix(a, "openai/") {
		t.Fatalf("CacheKey() = %q", a)
	}
}

func TestOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		} else if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[1].Content, "Bc4") {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-3.5-turbo",
			"choices":[{"index":0,"message":{"role":"assistant","content":"## Opening\nItalian."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", WithBaseURL(srv.URL))
	got, err := p.Comment(context.Background(), game)
	if err != nil {
		t.Fatalf("Comment() error = %v", err)
	}
	if got != "## Opening\nItalian." {
		t.Fatalf("Comment() = %q", got)
	}
}

func TestOpenAIUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", WithBaseURL(srv.URL)).Comment(context.Background(), game)
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.Provider != ProviderOpenAI {
		t.Fatalf("Comment() error = %v, want *ProviderError", err)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, "clippy", Keys{OpenAI: "k"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("New(clippy) error = %v", err)
	}
	if _, err := New(ctx, ProviderOpenAI, Keys{}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("New(openai) error = %v", err)
	}
	if _, err := New(ctx, ProviderGemini, Keys{OpenAI: "k"}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("New(gemini) error = %v", err)
	}
	p, err := New(ctx, ProviderOpenAI, Keys{OpenAI: "k"})
	if err != nil || p.Name() != ProviderOpenAI {
		t.Fatalf("New(openai) = %v, %v", p, err)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("**Opening** "), genai.Text("was sharp.")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	if got := responseText(resp); got != "**Opening** was sharp." {
		t.Fatalf("responseText() = %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Fatalf("responseText(empty) = %q", got)
	}
}

func TestUserPrompt(t *testing.T) {
	if got := UserPrompt("\n" + game + "\n"); got != "Please analyze the following game:\n"+game {
		t.Fatalf("UserPrompt() = %q", got)
	}
}
