package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/analysis"
)

type stubProvider struct {
	answer string
	err    error
	got    string
	calls  int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Comment(ctx context.Context, pgn string) (string, error) {
	s.calls++
	s.got = pgn
	return s.answer, s.err
}

func do(t *testing.T, p *stubProvider, method, target, body string) (*httptest.ResponseRecorder, analysis.Response) {
	t.Helper()
	var logs bytes.Buffer
	e := New(NewHandler(p, zerolog.New(&logs)))
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp analysis.Response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestAnalyzeOK(t *testing.T) {
	p := &stubProvider{answer: "**Opening:** solid"}
	rec, resp := do(t, p, http.MethodPost, AnalyzePath, `{"pgn":"1. e4 e5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Analysis != "**Opening:** solid" || resp.HTML != "" {
		t.Fatalf("response = %+v", resp)
	}
	if p.got != "1. e4 e5" {
		t.Fatalf("provider got %q", p.got)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("missing request id")
	}
}

func TestAnalyzeHTML(t *testing.T) {
	p := &stubProvider{answer: "**Opening:** solid"}
	rec, resp := do(t, p, http.MethodPost, AnalyzePath+"?format=html", `{"pgn":"1. e4 e5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(resp.HTML, "<strong>Opening:</strong>") {
		t.Fatalf("html = %q", resp.HTML)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
		msg    string
	}{
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed, msgMethodNotAllowed},
		{"put", http.MethodPut, `{"pgn":"1. e4"}`, http.StatusMethodNotAllowed, msgMethodNotAllowed},
		{"missing pgn", http.MethodPost, `{}`, http.StatusBadRequest, msgMissingPGN},
		{"blank pgn", http.MethodPost, `{"pgn":"  \n"}`, http.StatusBadRequest, msgMissingPGN},
		{"empty body", http.MethodPost, "", http.StatusBadRequest, msgMissingPGN},
		{"bad json", http.MethodPost, `{"pgn":`, http.StatusBadRequest, msgBadBody},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{answer: "unused"}
			rec, resp := do(t, p, tc.method, AnalyzePath, tc.body)
			if rec.Code != tc.status || resp.Message != tc.msg {
				t.Fatalf("got %d %q, want %d %q", rec.Code, resp.Message, tc.status, tc.msg)
			}
			if p.calls != 0 {
				t.Fatalf("provider called %d times", p.calls)
			}
		})
	}
}

func TestAnalyzeProviderFailureHidesDetail(t *testing.T) {
	p := &stubProvider{err: errors.New("invalid api key sk-secret")}
	rec, resp := do(t, p, http.MethodPost, AnalyzePath, `{"pgn":"1. e4"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Message != msgProviderFailed {
		t.Fatalf("message = %q", resp.Message)
	}
	if strings.Contains(rec.Body.String(), "sk-secret") {
		t.Fatalf("upstream error leaked: %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	rec, _ := do(t, &stubProvider{}, http.MethodGet, HealthPath, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestClientAgainstHandler(t *testing.T) {
	p := &stubProvider{answer: "## Summary\nWell played."}
	srv := httptest.NewServer(New(NewHandler(p, zerolog.Nop())))
	defer srv.Close()

	c := analysis.NewClient(srv.URL + AnalyzePath)
	got, err := c.Comment(context.Background(), "1. d4 d5")
	if err != nil || got != p.answer {
		t.Fatalf("Comment() = %q, %v", got, err)
	}

	p.err = errors.New("upstream down")
	_, err = c.Comment(context.Background(), "1. d4 d5")
	var rerr *analysis.RemoteError
	if !errors.As(err, &rerr) || rerr.Message != msgProviderFailed || rerr.Status != http.StatusInternalServerError {
		t.Fatalf("Comment() error = %v", err)
	}
}
