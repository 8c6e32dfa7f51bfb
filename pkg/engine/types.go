package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultDepth   = 18
	DefaultThreads = 4
	DefaultHashMB  = 128
)

var (
	ErrInvalidFEN    = errors.New("engine: invalid fen")
	ErrEngineStopped = errors.New("engine: not running")
)

// TransportError wraps a failure to start or talk to the engine worker.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Evaluation is one engine report for a position. Scores are from the point
// of view of the side to move, as the engine prints them.
type Evaluation struct {
	FEN     string
	Depth   int
	ScoreCP int
	Mate    *int
	PV      []string
}

// Pawns is the centipawn score in pawns, rounded to two decimals.
func (e Evaluation) Pawns() float64 {
	return math.Round(float64(e.ScoreCP)) / 100
}

// FormatScore renders the score for display, e.g. "0.34", "-1.20" or "#3".
func (e Evaluation) FormatScore() string {
	if e.Mate != nil {
		return fmt.Sprintf("#%d", *e.Mate)
	}
	return fmt.Sprintf("%.2f", e.Pawns())
}

func normalizeFEN(fen string) (string, error) {
	trimmed := strings.TrimSpace(fen)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", fmt.Errorf("%w: must be single-line", ErrInvalidFEN)
	}
	return trimmed, nil
}
