package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/qnkhuat/chesscoach/pkg/analysis"
	"github.com/qnkhuat/chesscoach/pkg/engine"
	"github.com/qnkhuat/chesscoach/pkg/gui"
	"github.com/qnkhuat/chesscoach/pkg/logging"
)

func main() {
	apiURL := flag.String("api", analysis.DefaultEndpoint, "commentary endpoint")
	stockfish := flag.String("stockfish", "", "path to a UCI engine (looked up on PATH when empty)")
	depth := flag.Int("depth", engine.DefaultDepth, "engine search depth")
	pgnPath := flag.String("pgn", "", "PGN file to open, - for stdin")
	logPath := flag.String("log", "./chessterm.log", "path to log file")
	name := flag.String("name", "", "session name shown in the title")
	batch := flag.Bool("batch", false, "print a report instead of starting the interface")
	timeout := flag.Duration("timeout", analysis.DefaultTimeout, "commentary request timeout")
	theme := flag.String("theme", gui.ThemeBasic.Name, "board theme: basic or classic")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log, closer, err := logging.InitLog(*logPath, "chessterm", *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if *name == "" {
		*name = petname.Generate(2, "-")
	}
	log = log.With().Str("session", *name).Logger()

	pgn, err := readPGN(*pgnPath)
	if err != nil {
		log.Error().Err(err).Msg("read pgn")
		fmt.Fprintf(os.Stderr, "error reading pgn: %v\n", err)
		os.Exit(1)
	}

	client := analysis.NewClient(*apiURL, analysis.WithTimeout(*timeout), analysis.WithClientLogger(log))

	if *batch || !term.IsTerminal(int(os.Stdout.Fd())) {
		code := runBatch(os.Stdout, log, batchConfig{
			pgn:       pgn,
			stockfish: *stockfish,
			depth:     *depth,
			client:    client,
			useAPI:    *apiURL != "",
		})
		closer.Close()
		os.Exit(code)
	}

	t, err := gui.ImportThemes(*theme, nil)
	if err != nil {
		t = gui.ThemeBasic
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, bridge := startInterface(ctx, gui.Config{Name: *name, Theme: t, Depth: *depth, PGN: pgn},
		engine.Stockfish(*stockfish), client, log)
	log.Info().Msg("interface started")
	runErr := app.Run()

	cctx, ccancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer ccancel()
	if err := bridge.Close(cctx); err != nil {
		log.Warn().Err(err).Msg("engine close")
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("interface stopped")
		os.Exit(1)
	}
}

func readPGN(path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	default:
		b, err := os.ReadFile(path)
		return string(b), err
	}
}

// startInterface builds the interface before the engine starts, so the
// engine's reader goroutine only ever sees a fully built App.
func startInterface(ctx context.Context, cfg gui.Config, launch engine.Launcher, commenter analysis.Commenter, log zerolog.Logger) (*gui.App, *engine.Bridge) {
	var app *gui.App
	bridge := engine.NewBridge(launch, func(ev engine.Evaluation) {
		app.ShowEvaluation(ev)
	}, engine.WithLogger(log))
	app = gui.New(cfg, bridge, commenter, log)
	if err := bridge.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("engine unavailable, continuing without evaluation")
	}
	return app, bridge
}
