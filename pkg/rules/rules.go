// Package rules adapts a chess rules library to the narrow capability set the
// navigator, the history store and the notation translator rely on.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

var (
	ErrIllegalMove = errors.New("rules: illegal move")
	ErrInvalidFEN  = errors.New("rules: invalid fen")
	ErrInvalidPGN  = errors.New("rules: invalid pgn")
)

// Move is the verbose record of one applied move.
type Move struct {
	SAN string
	UCI string
	FEN string // position after the move
}

// Game is the live game state. Implementations are not safe for concurrent use.
type Game interface {
	FEN() string
	Turn() Color
	MoveNumber() int
	InCheck() bool
	InCheckmate() bool
	InDraw() bool
	// Move applies a coordinate move such as "e2e4" or "e7e8q".
	Move(uci string) (Move, error)
	Undo() bool
	// Reset returns to the position the game was loaded from.
	Reset()
	LoadFEN(fen string) error
	LoadPGN(pgn string) error
	History() []Move
}

// StartFEN is the standard initial position.
var StartFEN = chess.NewGame().FEN()

// Standard implements Game on top of github.com/notnil/chess.
// The underlying library has no undo, so the live game is rebuilt from the
// base position and the applied moves whenever a move is taken back.
type Standard struct {
	base  string
	moves []*chess.Move
	game  *chess.Game
	tags  []*chess.TagPair
}

func NewStandard() *Standard {
	s := &Standard{}
	s.base = StartFEN
	s.game = chess.NewGame()
	return s
}

// NewFromFEN returns a game seeded at fen.
func NewFromFEN(fen string) (*Standard, error) {
	s := NewStandard()
	if err := s.LoadFEN(fen); err != nil {
		return nil, err
	}
	return s, nil
}

func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return chess.NewGame(opt), nil
}

func (s *Standard) FEN() string {
	return s.game.Position().String()
}

func (s *Standard) Turn() Color {
	if s.game.Position().Turn() == chess.Black {
		return Black
	}
	return White
}

// MoveNumber is the full-move counter of the current position.
func (s *Standard) MoveNumber() int {
	fields := strings.Fields(s.FEN())
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// InCheck reports whether the side to move is attacked, read from the
// position itself so set-up positions are covered too.
func (s *Standard) InCheck() bool {
	pos := s.game.Position()
	mover := pos.Turn()
	var king chess.Square
	found := false
	for sq, p := range pos.Board().SquareMap() {
		if p.Type() == chess.King && p.Color() == mover {
			king, found = sq, true
			break
		}
	}
	if !found {
		return false
	}

	// Hand the move to the opponent and see whether anything reaches the king.
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return false
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return false
	}
	for _, m := range chess.NewGame(opt).ValidMoves() {
		if m.S2() == king {
			return true
		}
	}
	return false
}

func (s *Standard) InCheckmate() bool {
	return s.game.Position().Status() == chess.Checkmate
}

func (s *Standard) InDraw() bool {
	switch s.game.Method() {
	case chess.Stalemate, chess.InsufficientMaterial, chess.FivefoldRepetition, chess.SeventyFiveMoveRule:
		return true
	}
	if s.game.Position().Status() == chess.Stalemate {
		return true
	}
	for _, m := range s.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			return true
		}
	}
	return false
}

func findValid(pos *chess.Position, uci string) *chess.Move {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, m := range pos.ValidMoves() {
		if m.String() == uci {
			return m
		}
	}
	return nil
}

func (s *Standard) Move(uci string) (Move, error) {
	pos := s.game.Position()
	m := findValid(pos, uci)
	if m == nil {
		return Move{}, fmt.Errorf("%w: %q in %s", ErrIllegalMove, uci, pos.String())
	}
	san := chess.AlgebraicNotation{}.Encode(pos, m)
	if err := s.game.Move(m); err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	s.moves = append(s.moves, m)
	return Move{SAN: san, UCI: m.String(), FEN: s.FEN()}, nil
}

func (s *Standard) Undo() bool {
	if len(s.moves) == 0 {
		return false
	}
	s.replay(s.moves[:len(s.moves)-1])
	return true
}

func (s *Standard) replay(moves []*chess.Move) {
	g, err := gameFromFEN(s.base)
	if err != nil {
		// base was validated when it was loaded
		panic(err)
	}
	kept := make([]*chess.Move, 0, len(moves))
	for _, m := range moves {
		valid := findValid(g.Position(), m.String())
		if valid == nil || g.Move(valid) != nil {
			break
		}
		kept = append(kept, valid)
	}
	s.game = g
	s.moves = kept
}

func (s *Standard) Reset() {
	s.replay(nil)
}

func (s *Standard) LoadFEN(fen string) error {
	g, err := gameFromFEN(strings.TrimSpace(fen))
	if err != nil {
		return err
	}
	s.base = g.Position().String()
	s.game = g
	s.moves = nil
	s.tags = nil
	return nil
}

// LoadPGN replaces the game with the main line of pgn. On error the current
// state is left untouched.
func (s *Standard) LoadPGN(pgn string) error {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPGN, err)
	}
	parsed := chess.NewGame(opt)
	positions := parsed.Positions()
	if len(positions) == 0 {
		return fmt.Errorf("%w: no positions", ErrInvalidPGN)
	}
	next := &Standard{base: positions[0].String()}
	next.replay(parsed.Moves())
	if len(next.moves) != len(parsed.Moves()) {
		return fmt.Errorf("%w: illegal move at ply %d", ErrInvalidPGN, len(next.moves)+1)
	}
	next.tags = parsed.TagPairs()
	*s = *next
	return nil
}

func (s *Standard) History() []Move {
	g, err := gameFromFEN(s.base)
	if err != nil {
		return nil
	}
	out := make([]Move, 0, len(s.moves))
	for _, m := range s.moves {
		pos := g.Position()
		san := chess.AlgebraicNotation{}.Encode(pos, m)
		if err := g.Move(m); err != nil {
			break
		}
		out = append(out, Move{SAN: san, UCI: m.String(), FEN: g.Position().String()})
	}
	return out
}

// BaseFEN is the position the game was loaded from.
func (s *Standard) BaseFEN() string {
	return s.base
}

// Tags returns the header tags of the last loaded PGN.
func (s *Standard) Tags() map[string]string {
	out := make(map[string]string, len(s.tags))
	for _, t := range s.tags {
		out[t.Key] = t.Value
	}
	return out
}
