// Package navigator keeps the live game, the loaded move history and the
// cursor into it in step, and fans every position change out to the board,
// the status line and the engine.
package navigator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/history"
	"github.com/qnkhuat/chesscoach/pkg/rules"
)

// AtStart is the cursor value of the initial position.
const AtStart = -1

var ErrEmptyInput = errors.New("navigator: empty pgn")

type Board interface {
	SetPosition(fen string)
}

type Status interface {
	SetStatus(text string)
}

type Evaluator interface {
	RequestEvaluation(fen string, depth int) error
}

// Navigator is owned by a single goroutine (the UI loop).
type Navigator struct {
	game      rules.Game
	history   *history.History
	cursor    int
	depth     int
	board     Board
	status    Status
	evaluator Evaluator
	log       zerolog.Logger
	onChange  func(ply int)
}

type Option func(*Navigator)

func WithLogger(l zerolog.Logger) Option {
	return func(n *Navigator) { n.log = l }
}

func WithDepth(depth int) Option {
	return func(n *Navigator) { n.depth = depth }
}

// WithChangeFunc registers f to be called with the cursor after every move.
func WithChangeFunc(f func(ply int)) Option {
	return func(n *Navigator) { n.onChange = f }
}

func New(game rules.Game, board Board, status Status, evaluator Evaluator, opts ...Option) *Navigator {
	n := &Navigator{
		game:      game,
		cursor:    AtStart,
		depth:     18,
		board:     board,
		status:    status,
		evaluator: evaluator,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Load replaces the history with pgn and shows its final position. Nothing is
// changed when pgn is blank or cannot be parsed.
func (n *Navigator) Load(pgn string) error {
	if strings.TrimSpace(pgn) == "" {
		return ErrEmptyInput
	}
	h, err := history.Load(pgn)
	if err != nil {
		return err
	}
	if err := n.game.LoadPGN(h.PGN()); err != nil {
		return &history.ParseError{Err: err}
	}
	n.history = h
	n.cursor = h.Len() - 1
	n.log.Info().Int("plies", h.Len()).Msg("game loaded")
	n.refresh()
	return nil
}

func (n *Navigator) History() *history.History {
	return n.history
}

// Index is the cursor: AtStart or the index of the last applied move.
func (n *Navigator) Index() int {
	return n.cursor
}

func (n *Navigator) Len() int {
	if n.history == nil {
		return 0
	}
	return n.history.Len()
}

func (n *Navigator) FEN() string {
	return n.game.FEN()
}

func (n *Navigator) GoToStart() {
	if n.Len() == 0 {
		return
	}
	n.game.Reset()
	n.cursor = AtStart
	n.refresh()
}

func (n *Navigator) GoToPrevious() {
	if n.cursor <= AtStart {
		return
	}
	if !n.game.Undo() {
		n.log.Warn().Int("ply", n.cursor).Msg("undo failed, resyncing")
		n.resync(n.cursor - 1)
		return
	}
	n.cursor--
	n.refresh()
}

func (n *Navigator) GoToNext() {
	if n.cursor >= n.Len()-1 {
		return
	}
	next, err := n.history.At(n.cursor + 1)
	if err != nil {
		return
	}
	if _, err := n.game.Move(next.UCI); err != nil {
		n.log.Warn().Err(err).Int("ply", next.Index).Msg("redo failed, resyncing")
		n.resync(next.Index)
		return
	}
	n.cursor++
	n.refresh()
}

// GoToEnd rebuilds the final position from the source PGN.
func (n *Navigator) GoToEnd() {
	if n.Len() == 0 {
		return
	}
	if err := n.game.LoadPGN(n.history.PGN()); err != nil {
		n.log.Error().Err(err).Msg("reload failed")
		return
	}
	n.cursor = n.Len() - 1
	n.refresh()
}

// GoTo moves the cursor to ply, clamped to the history.
func (n *Navigator) GoTo(ply int) {
	if n.Len() == 0 {
		return
	}
	if ply < AtStart {
		ply = AtStart
	}
	if ply > n.Len()-1 {
		ply = n.Len() - 1
	}
	n.resync(ply)
}

func (n *Navigator) resync(ply int) {
	n.game.Reset()
	n.cursor = AtStart
	for i := 0; i <= ply; i++ {
		m, err := n.history.At(i)
		if err != nil {
			break
		}
		if _, err := n.game.Move(m.UCI); err != nil {
			n.log.Error().Err(err).Int("ply", i).Msg("replay failed")
			break
		}
		n.cursor = i
	}
	n.refresh()
}

func (n *Navigator) refresh() {
	fen := n.game.FEN()
	if n.board != nil {
		n.board.SetPosition(fen)
	}
	if n.status != nil {
		n.status.SetStatus(StatusText(n.game))
	}
	if n.evaluator != nil {
		if err := n.evaluator.RequestEvaluation(fen, n.depth); err != nil {
			n.log.Warn().Err(err).Msg("evaluation request rejected")
		}
	}
	if n.onChange != nil {
		n.onChange(n.cursor)
	}
}

// StatusText describes whose turn it is and whether the game is over.
func StatusText(g rules.Game) string {
	mover := g.Turn().String()
	switch {
	case g.InCheckmate():
		return fmt.Sprintf("Game over, %s is in checkmate.", mover)
	case g.InDraw():
		return "Game over, drawn position."
	case g.InCheck():
		return fmt.Sprintf("%s to move, %s is in check.", mover, mover)
	default:
		return fmt.Sprintf("%s to move.", mover)
	}
}
