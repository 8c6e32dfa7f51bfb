// Package history holds the immutable, indexable move list of one loaded PGN.
package history

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/qnkhuat/chesscoach/pkg/rules"
)

var ErrIndexOutOfRange = errors.New("history: index out of range")

// ParseError reports a PGN that could not be loaded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("history: invalid pgn: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Move struct {
	Index int
	SAN   string
	UCI   string
	FEN   string
	// MoveNumber and White describe the position the move was played from.
	MoveNumber int
	White      bool
}

// Number is the move label used in move lists, e.g. "1." or "1...".
func (m Move) Number() string {
	n := m.MoveNumber
	if n < 1 {
		n = 1
	}
	if m.White {
		return fmt.Sprintf("%d.", n)
	}
	return fmt.Sprintf("%d...", n)
}

// moveSlot reads the full-move number and side to move from a FEN.
func moveSlot(fen string) (number int, white bool) {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1, true
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		n = 1
	}
	return n, fields[1] != "b"
}

type History struct {
	pgn      string
	startFEN string
	moves    []Move
	tags     map[string]string
}

var (
	tagLine    = regexp.MustCompile(`(?m)^\s*\[[^\]]*\]\s*$`)
	comments   = regexp.MustCompile(`\{[^}]*\}|;[^\n]*`)
	resultOnly = regexp.MustCompile(`^(1-0|0-1|1/2-1/2|\*)?$`)
)

// Load parses pgn into a History. It never returns a partial history.
func Load(pgn string) (*History, error) {
	pgn = Normalize(pgn)
	if strings.TrimSpace(pgn) == "" {
		return nil, &ParseError{Err: errors.New("empty input")}
	}

	game := rules.NewStandard()
	if err := game.LoadPGN(pgn); err != nil {
		return nil, &ParseError{Err: err}
	}
	records := game.History()
	if len(records) == 0 && !moveTextEmpty(pgn) {
		return nil, &ParseError{Err: errors.New("no moves could be read")}
	}

	h := &History{
		pgn:      pgn,
		startFEN: game.BaseFEN(),
		moves:    make([]Move, len(records)),
		tags:     game.Tags(),
	}
	before := h.startFEN
	for i, r := range records {
		number, white := moveSlot(before)
		h.moves[i] = Move{Index: i, SAN: r.SAN, UCI: r.UCI, FEN: r.FEN, MoveNumber: number, White: white}
		before = r.FEN
	}
	return h, nil
}

// moveTextEmpty reports whether the movetext section holds nothing but a result.
func moveTextEmpty(pgn string) bool {
	body := tagLine.ReplaceAllString(pgn, "")
	body = comments.ReplaceAllString(body, "")
	return resultOnly.MatchString(strings.TrimSpace(body))
}

// Normalize converts legacy Latin-1 exports to UTF-8 and unifies line endings.
func Normalize(pgn string) string {
	if !utf8.ValidString(pgn) {
		r := transform.NewReader(strings.NewReader(pgn), charmap.ISO8859_1.NewDecoder())
		if b, err := io.ReadAll(r); err == nil {
			pgn = string(b)
		}
	}
	pgn = strings.TrimPrefix(pgn, "\ufeff")
	return strings.ReplaceAll(pgn, "\r\n", "\n")
}

func (h *History) Len() int {
	return len(h.moves)
}

func (h *History) At(i int) (Move, error) {
	if i < 0 || i >= len(h.moves) {
		return Move{}, fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, i, len(h.moves)-1)
	}
	return h.moves[i], nil
}

func (h *History) Moves() []Move {
	return append([]Move(nil), h.moves...)
}

func (h *History) StartFEN() string {
	return h.startFEN
}

// PGN is the normalised source the history was built from.
func (h *History) PGN() string {
	return h.pgn
}

// FEN returns the position at ply, with -1 meaning the start position.
func (h *History) FEN(ply int) (string, error) {
	if ply == -1 {
		return h.startFEN, nil
	}
	m, err := h.At(ply)
	if err != nil {
		return "", err
	}
	return m.FEN, nil
}

func (h *History) Tag(key string) string {
	return h.tags[key]
}
