// Package api serves game commentary over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/analysis"
	"github.com/qnkhuat/chesscoach/pkg/commentary"
)

const (
	AnalyzePath = "/api/analyze"
	HealthPath  = "/healthz"

	DefaultProviderTimeout = 80 * time.Second

	msgMethodNotAllowed = "Only POST requests are allowed."
	msgMissingPGN       = "PGN not provided."
	msgBadBody          = "Invalid request body."
	msgProviderFailed   = "An error occurred while processing the analysis."
)

type Handler struct {
	provider commentary.Provider
	html     *analysis.HTMLRenderer
	timeout  time.Duration
	log      zerolog.Logger
}

type Option func(*Handler)

func WithProviderTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func NewHandler(p commentary.Provider, log zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		provider: p,
		html:     analysis.NewHTMLRenderer(),
		timeout:  DefaultProviderTimeout,
		log:      log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// New returns the router with recovery, request ids and request logging.
func New(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			h.log.Info().
				Str("rid", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	e.Any(AnalyzePath, h.Analyze)
	e.GET(HealthPath, h.Health)
	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Analyze answers POST {pgn} with {analysis}. With ?format=html the rendered
// fragment is added as html.
func (h *Handler) Analyze(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, analysis.Response{Message: msgMethodNotAllowed})
	}
	var req analysis.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, analysis.Response{Message: msgBadBody})
	}
	if strings.TrimSpace(req.PGN) == "" {
		return c.JSON(http.StatusBadRequest, analysis.Response{Message: msgMissingPGN})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rid := c.Response().Header().Get(echo.HeaderXRequestID)
	text, err := h.provider.Comment(ctx, req.PGN)
	if err != nil {
		h.log.Error().Err(err).Str("rid", rid).Str("provider", h.provider.Name()).Msg("commentary failed")
		return c.JSON(http.StatusInternalServerError, analysis.Response{Message: msgProviderFailed})
	}

	resp := analysis.Response{Analysis: text}
	if c.QueryParam("format") == "html" {
		out, err := h.html.Render(text)
		if err != nil {
			h.log.Warn().Err(err).Str("rid", rid).Msg("html render failed")
		} else {
			resp.HTML = out
		}
	}
	return c.JSON(http.StatusOK, resp)
}
