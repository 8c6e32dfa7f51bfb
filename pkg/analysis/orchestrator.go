// Package analysis asks the commentary service about a game and shows the
// answer in a panel.
package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const LoadingText = "Analyzing with the coach..."

var ErrBusy = errors.New("analysis: request already running")

// Commenter turns a PGN into markdown commentary.
type Commenter interface {
	Comment(ctx context.Context, pgn string) (string, error)
}

// Trigger is whatever starts an analysis; it is disabled while one runs.
type Trigger interface {
	SetBusy(busy bool)
}

// Panel receives rendered content or an error message, replacing what it had.
type Panel interface {
	SetContent(content string)
	SetError(message string)
}

type Renderer interface {
	Render(markdown string) (string, error)
}

type Orchestrator struct {
	commenter Commenter
	trigger   Trigger
	panel     Panel
	renderer  Renderer
	loading   string
	busy      atomic.Bool
	log       zerolog.Logger
}

type Option func(*Orchestrator)

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithLoadingText(text string) Option {
	return func(o *Orchestrator) { o.loading = text }
}

func NewOrchestrator(c Commenter, trigger Trigger, panel Panel, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		commenter: c,
		trigger:   trigger,
		panel:     panel,
		renderer:  renderer,
		loading:   LoadingText,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// Analyze requests commentary for pgn and fills the panel with the result.
// Blank input returns ErrEmptyInput without touching the trigger, the panel
// or the network. Request failures are shown in the panel and returned.
func (o *Orchestrator) Analyze(ctx context.Context, pgn string) (string, error) {
	if strings.TrimSpace(pgn) == "" {
		return "", ErrEmptyInput
	}
	if !o.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer o.busy.Store(false)

	o.setBusy(true)
	defer o.setBusy(false)
	if o.panel != nil {
		o.panel.SetContent(o.loading)
	}

	markdown, err := o.commenter.Comment(ctx, pgn)
	if err != nil {
		var rerr *RemoteError
		if !errors.As(err, &rerr) {
			rerr = &RemoteError{Message: GenericMessage, Err: err}
		}
		o.log.Warn().Err(err).Msg("analysis failed")
		if o.panel != nil {
			o.panel.SetError(rerr.Message)
		}
		return "", rerr
	}

	content := markdown
	if o.renderer != nil {
		rendered, err := o.renderer.Render(markdown)
		if err != nil {
			o.log.Warn().Err(err).Msg("render failed, showing raw text")
		} else {
			content = rendered
		}
	}
	if o.panel != nil {
		o.panel.SetContent(content)
	}
	return markdown, nil
}

func (o *Orchestrator) setBusy(busy bool) {
	if o.trigger != nil {
		o.trigger.SetBusy(busy)
	}
}
