package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultEndpoint = "http://localhost:8080/api/analyze"
	DefaultTimeout  = 90 * time.Second

	// GenericMessage is shown whenever the server gave no usable reason.
	GenericMessage = "There was a problem with the analysis. Please try again."

	maxBody = 1 << 20
)

var ErrEmptyInput = errors.New("analysis: empty pgn")

// RemoteError is a failed commentary request. Message is safe to show.
type RemoteError struct {
	Message string
	Status  int
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis: %s: %v", e.Message, e.Err)
	}
	return "analysis: " + e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Request and Response are the wire shapes of the analyze endpoint.
type Request struct {
	PGN string `json:"pgn"`
}

type Response struct {
	Analysis string `json:"analysis,omitempty"`
	HTML     string `json:"html,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Client posts games to a commentary endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "remote" }

// Comment sends one request and returns the markdown commentary. Every
// failure is a *RemoteError.
func (c *Client) Comment(ctx context.Context, pgn string) (string, error) {
	body, err := json.Marshal(Request{PGN: pgn})
	if err != nil {
		return "", &RemoteError{Message: GenericMessage, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &RemoteError{Message: GenericMessage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("analysis request failed")
		return "", &RemoteError{Message: GenericMessage, Err: err}
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out)
	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("analysis response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Message
		if decodeErr != nil || msg == "" {
			msg = GenericMessage
		}
		return "", &RemoteError{Message: msg, Status: resp.StatusCode}
	}
	if decodeErr != nil {
		return "", &RemoteError{Message: GenericMessage, Status: resp.StatusCode, Err: decodeErr}
	}
	if out.Analysis == "" {
		return "", &RemoteError{Message: GenericMessage, Status: resp.StatusCode, Err: errors.New("empty analysis")}
	}
	return out.Analysis, nil
}
