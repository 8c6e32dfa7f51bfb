package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/analysis"
	"github.com/qnkhuat/chesscoach/pkg/engine"
	"github.com/qnkhuat/chesscoach/pkg/gui"
	"github.com/qnkhuat/chesscoach/pkg/history"
	"github.com/qnkhuat/chesscoach/pkg/navigator"
	"github.com/qnkhuat/chesscoach/pkg/notation"
	"github.com/qnkhuat/chesscoach/pkg/rules"
)

const engineWait = 15 * time.Second

var (
	headStyle  = color.New(color.FgYellow, color.Bold)
	numStyle   = color.New(color.Faint)
	errStyle   = color.New(color.FgRed)
	scoreStyle = color.New(color.FgGreen, color.Bold)
)

type batchConfig struct {
	pgn       string
	stockfish string
	depth     int
	client    analysis.Commenter
	useAPI    bool
	launch    engine.Launcher
	wait      time.Duration
}

// runBatch prints the game, its final status, an engine line for the final
// position and the coach's commentary. The return value is the exit code.
func runBatch(w io.Writer, log zerolog.Logger, cfg batchConfig) int {
	if strings.TrimSpace(cfg.pgn) == "" {
		errStyle.Fprintln(w, gui.LabelEmptyInput)
		return 2
	}
	h, err := history.Load(cfg.pgn)
	if err != nil {
		log.Info().Err(err).Msg("rejected pgn")
		errStyle.Fprintln(w, gui.LabelInvalidPGN)
		return 1
	}
	game := rules.NewStandard()
	if err := game.LoadPGN(h.PGN()); err != nil {
		log.Error().Err(err).Msg("replay pgn")
		errStyle.Fprintln(w, gui.LabelInvalidPGN)
		return 1
	}

	if white, black := h.Tag("White"), h.Tag("Black"); white != "" || black != "" {
		headStyle.Fprintf(w, "%s vs %s\n", orUnknown(white), orUnknown(black))
	}
	printMoves(w, h)
	fmt.Fprintln(w, navigator.StatusText(game))

	if ev, ok := evaluateFinal(log, cfg, game.FEN()); ok {
		score := ev.FormatScore()
		if ev.Mate == nil && ev.ScoreCP > 0 {
			score = "+" + score
		}
		scoreStyle.Fprintf(w, "%s", score)
		fmt.Fprintf(w, " depth %d %s\n", ev.Depth, notation.Translate(ev.FEN, ev.PV))
	} else {
		numStyle.Fprintln(w, gui.LabelNoEngine)
	}

	if !cfg.useAPI || cfg.client == nil {
		return 0
	}
	fmt.Fprintln(w)
	text, err := cfg.client.Comment(context.Background(), h.PGN())
	if err != nil {
		var rerr *analysis.RemoteError
		msg := analysis.GenericMessage
		if errors.As(err, &rerr) {
			msg = rerr.Message
		}
		log.Warn().Err(err).Msg("analysis failed")
		errStyle.Fprintln(w, msg)
		return 1
	}
	fmt.Fprintln(w, strings.TrimSpace(text))
	return 0
}

func orUnknown(s string) string {
	if s == "" || s == "?" {
		return "?"
	}
	return s
}

func printMoves(w io.Writer, h *history.History) {
	var line []string
	flush := func() {
		if len(line) > 0 {
			fmt.Fprintln(w, strings.Join(line, " "))
			line = line[:0]
		}
	}
	for i, m := range h.Moves() {
		if i == 0 || m.White {
			flush()
			line = append(line, numStyle.Sprint(m.Number()))
		}
		line = append(line, m.SAN)
	}
	flush()
}

// evaluateFinal searches fen with a fresh engine and returns the deepest
// report seen before the requested depth is reached or the wait expires.
func evaluateFinal(log zerolog.Logger, cfg batchConfig, fen string) (engine.Evaluation, bool) {
	launch := cfg.launch
	if launch == nil {
		launch = engine.Stockfish(cfg.stockfish)
	}
	wait := cfg.wait
	if wait <= 0 {
		wait = engineWait
	}
	depth := cfg.depth
	if depth <= 0 {
		depth = engine.DefaultDepth
	}

	var (
		mu   sync.Mutex
		last engine.Evaluation
		seen bool
	)
	reached := make(chan struct{})
	var once sync.Once
	b := engine.NewBridge(launch, func(ev engine.Evaluation) {
		mu.Lock()
		last, seen = ev, true
		mu.Unlock()
		if ev.Depth >= depth {
			once.Do(func() { close(reached) })
		}
	}, engine.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := b.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("engine unavailable")
		return engine.Evaluation{}, false
	}
	defer func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer ccancel()
		if err := b.Close(cctx); err != nil {
			log.Warn().Err(err).Msg("engine close")
		}
	}()
	if err := b.RequestEvaluation(fen, depth); err != nil {
		log.Warn().Err(err).Msg("engine request")
		return engine.Evaluation{}, false
	}

	select {
	case <-reached:
	case <-ctx.Done():
	}
	mu.Lock()
	defer mu.Unlock()
	return last, seen
}
