// Package gui is the terminal front-end: a board, the move list, the engine
// line and the coach's commentary around a PGN input box.
package gui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/qnkhuat/chesscoach/pkg/analysis"
	"github.com/qnkhuat/chesscoach/pkg/engine"
	"github.com/qnkhuat/chesscoach/pkg/history"
	"github.com/qnkhuat/chesscoach/pkg/navigator"
	"github.com/qnkhuat/chesscoach/pkg/notation"
	"github.com/qnkhuat/chesscoach/pkg/rules"
)

const (
	pageMain  = "main"
	pageAlert = "alert"
)

type Config struct {
	Name  string
	Theme Theme
	Depth int
	PGN   string
}

type App struct {
	app        *tview.Application
	pages      *tview.Pages
	board      *Board
	moves      *MoveList
	status     *tview.TextView
	eval       *tview.TextView
	analysis   *tview.TextView
	input      *tview.TextArea
	analyzeBtn *tview.Button
	loadBtn    *tview.Button
	focusRing  []tview.Primitive

	nav       *navigator.Navigator
	engine    navigator.Evaluator
	orch      *analysis.Orchestrator
	stopwatch *Stopwatch

	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// New builds the interface. evaluator may be nil when no engine is running;
// an evaluator with a Failed() bool method is consulted before each request
// so a dead engine is reported instead of a pending evaluation.
func New(cfg Config, evaluator navigator.Evaluator, commenter analysis.Commenter, log zerolog.Logger) *App {
	if cfg.Theme.Name == "" {
		cfg.Theme = ThemeBasic
	}
	if cfg.Depth <= 0 {
		cfg.Depth = engine.DefaultDepth
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		board:  NewBoard(cfg.Theme),
		engine: evaluator,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	a.moves = NewMoveList(func(ply int) { a.nav.GoTo(ply) })
	a.status = tview.NewTextView().SetDynamicColors(true)
	a.eval = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	a.analysis = tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	a.input = tview.NewTextArea().SetPlaceholder(LabelPlaceholder)
	a.loadBtn = tview.NewButton(string(LabelLoad)).SetSelectedFunc(func() { a.load(a.input.GetText()) })
	a.analyzeBtn = tview.NewButton(LabelAnalyze).SetSelectedFunc(a.analyze)

	a.nav = navigator.New(rules.NewStandard(), a.board, statusLine{a.status}, evaluator,
		navigator.WithDepth(cfg.Depth),
		navigator.WithLogger(log),
		navigator.WithChangeFunc(a.onChange),
	)
	a.orch = analysis.NewOrchestrator(commenter, analyzeTrigger{a}, analysisPanel{a}, analysis.NewTerminalRenderer(),
		analysis.WithLogger(log),
	)

	a.layout()
	a.showEngineState()
	a.status.SetText(navigator.StatusText(rules.NewStandard()))
	if cfg.PGN != "" {
		a.input.SetText(cfg.PGN, false)
		a.load(cfg.PGN)
	}
	return a
}

func (a *App) layout() {
	a.board.SetBorder(true).SetTitle(" " + a.title() + " ")
	a.moves.SetBorder(true).SetTitle(" Moves ")
	a.eval.SetBorder(true).SetTitle(" Engine ")
	a.analysis.SetBorder(true).SetTitle(" Coach ")
	a.input.SetBorder(true).SetTitle(" PGN ")

	nav := tview.NewFlex().
		AddItem(a.navButton(LabelStart, func() { a.nav.GoToStart() }), 0, 1, false).
		AddItem(a.navButton(LabelPrevious, func() { a.nav.GoToPrevious() }), 0, 1, false).
		AddItem(a.navButton(LabelNext, func() { a.nav.GoToNext() }), 0, 1, false).
		AddItem(a.navButton(LabelEnd, func() { a.nav.GoToEnd() }), 0, 1, false).
		AddItem(a.navButton(LabelFlip, a.board.Flip), 0, 1, false)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.board, 12, 0, false).
		AddItem(nav, 1, 0, false).
		AddItem(a.status, 2, 0, false).
		AddItem(a.eval, 0, 1, false)

	buttons := tview.NewFlex().
		AddItem(a.loadBtn, 0, 1, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(a.analyzeBtn, 0, 2, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.input, 8, 0, true).
		AddItem(buttons, 1, 0, false).
		AddItem(a.analysis, 0, 1, false)

	root := tview.NewFlex().
		AddItem(left, 32, 0, false).
		AddItem(a.moves, 24, 0, false).
		AddItem(right, 0, 1, true)

	a.focusRing = []tview.Primitive{a.input, a.loadBtn, a.analyzeBtn, a.moves, a.analysis}
	a.pages.AddPage(pageMain, root, true, true)
	a.app.SetRoot(a.pages, true).EnableMouse(true).SetInputCapture(a.capture)
}

func (a *App) title() string {
	if a.cfg.Name == "" {
		return "chesscoach"
	}
	return "chesscoach: " + a.cfg.Name
}

func (a *App) navButton(label string, f func()) *tview.Button {
	return tview.NewButton(label).SetSelectedFunc(f)
}

// capture handles the global keys. Arrow keys move through the game unless
// the PGN box has focus.
func (a *App) capture(event *tcell.EventKey) *tcell.EventKey {
	if name, _ := a.pages.GetFrontPage(); name == pageAlert {
		return event
	}
	switch event.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		a.Stop()
		return nil
	case tcell.KeyTab:
		a.cycleFocus(1)
		return nil
	case tcell.KeyBacktab:
		a.cycleFocus(-1)
		return nil
	case tcell.KeyCtrlR:
		a.analyze()
		return nil
	}
	if a.app.GetFocus() == a.input {
		return event
	}
	switch event.Key() {
	case tcell.KeyLeft:
		a.nav.GoToPrevious()
	case tcell.KeyRight:
		a.nav.GoToNext()
	case tcell.KeyHome:
		a.nav.GoToStart()
	case tcell.KeyEnd:
		a.nav.GoToEnd()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'f':
			a.board.Flip()
		case 'q':
			a.Stop()
		default:
			return event
		}
	default:
		return event
	}
	return nil
}

func (a *App) cycleFocus(step int) {
	focus := a.app.GetFocus()
	next := 0
	for i, p := range a.focusRing {
		if p == focus {
			next = (i + step + len(a.focusRing)) % len(a.focusRing)
			break
		}
	}
	a.app.SetFocus(a.focusRing[next])
}

// load replaces the game with pgn and reports input errors in a modal.
func (a *App) load(pgn string) bool {
	err := a.nav.Load(pgn)
	switch {
	case err == nil:
		a.moves.SetHistory(a.nav.History())
		a.moves.Mark(a.nav.Index())
		return true
	case errors.Is(err, navigator.ErrEmptyInput):
		a.alert(LabelEmptyInput)
	default:
		var perr *history.ParseError
		if errors.As(err, &perr) {
			a.log.Info().Err(err).Msg("rejected pgn")
		} else {
			a.log.Error().Err(err).Msg("load failed")
		}
		a.alert(LabelInvalidPGN)
	}
	return false
}

// analyze loads the game on the board and asks the coach about it.
func (a *App) analyze() {
	if a.orch.Busy() {
		return
	}
	pgn := a.input.GetText()
	if !a.load(pgn) {
		return
	}
	go func() {
		if _, err := a.orch.Analyze(a.ctx, pgn); err != nil && !errors.Is(err, analysis.ErrBusy) {
			a.log.Warn().Err(err).Msg("analysis failed")
		}
	}()
}

func (a *App) alert(text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{LabelOK}).
		SetDoneFunc(func(int, string) {
			a.pages.RemovePage(pageAlert)
			a.app.SetFocus(a.input)
		})
	a.pages.AddPage(pageAlert, modal, false, true)
	a.app.SetFocus(modal)
}

func (a *App) onChange(ply int) {
	if ply == navigator.AtStart {
		a.board.Highlight("")
	} else if m, err := a.nav.History().At(ply); err == nil {
		a.board.Highlight(m.UCI)
	}
	a.moves.Mark(ply)
	if a.engineDown() {
		a.eval.SetText(LabelNoEngine)
	} else {
		a.eval.SetText(LabelEvaluating)
	}
}

type failer interface {
	Failed() bool
}

func (a *App) engineDown() bool {
	if a.engine == nil {
		return true
	}
	f, ok := a.engine.(failer)
	return ok && f.Failed()
}

func (a *App) showEngineState() {
	if a.engineDown() {
		a.eval.SetText(LabelNoEngine)
	}
}

// ShowEvaluation displays an engine report. Safe to call from any goroutine.
func (a *App) ShowEvaluation(ev engine.Evaluation) {
	line := notation.Translate(ev.FEN, ev.PV)
	a.app.QueueUpdateDraw(func() {
		if ev.FEN != a.nav.FEN() {
			return
		}
		a.eval.SetText(formatEvaluation(ev, line, a.cfg.Theme))
	})
}

func formatEvaluation(ev engine.Evaluation, line string, theme Theme) string {
	color := theme.MeterWin
	if (ev.Mate != nil && *ev.Mate < 0) || (ev.Mate == nil && ev.ScoreCP < 0) {
		color = theme.MeterLose
	}
	score := ev.FormatScore()
	if ev.Mate == nil && ev.ScoreCP > 0 {
		score = "+" + score
	}
	return fmt.Sprintf("%s[::b]%s[-::-] %sdepth %d[-]\n%s",
		colorTag(color), score, colorTag(theme.Score), ev.Depth, tview.Escape(line))
}

func colorTag(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", c.Hex())
}

// Run starts the event loop. The engine may have failed to start since New.
func (a *App) Run() error {
	a.showEngineState()
	return a.app.Run()
}

// Stop ends the event loop and cancels a running analysis.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

type statusLine struct {
	view *tview.TextView
}

func (s statusLine) SetStatus(text string) {
	s.view.SetText(text)
}

// analyzeTrigger and analysisPanel are driven from the analysis goroutine.
type analyzeTrigger struct{ a *App }

func (t analyzeTrigger) SetBusy(busy bool) {
	a := t.a
	if busy {
		var sw *Stopwatch
		sw = StartStopwatch(time.Second, func(elapsed time.Duration) {
			a.app.QueueUpdateDraw(func() {
				if a.stopwatch != sw {
					return
				}
				a.analyzeBtn.SetLabel(fmt.Sprintf("%s %s", LabelAnalyzing, formatElapsed(elapsed)))
			})
		})
		a.app.QueueUpdateDraw(func() {
			a.stopwatch = sw
			a.analyzeBtn.SetDisabled(true).SetLabel(LabelAnalyzing)
		})
		return
	}
	a.app.QueueUpdateDraw(func() {
		if a.stopwatch != nil {
			a.log.Debug().Dur("took", a.stopwatch.Elapsed()).Msg("analysis finished")
			a.stopwatch.Stop()
			a.stopwatch = nil
		}
		a.analyzeBtn.SetDisabled(false).SetLabel(LabelAnalyze)
	})
}

type analysisPanel struct{ a *App }

func (p analysisPanel) SetContent(content string) {
	p.a.app.QueueUpdateDraw(func() {
		p.a.analysis.SetText(content).ScrollToBeginning()
	})
}

func (p analysisPanel) SetError(message string) {
	p.a.app.QueueUpdateDraw(func() {
		p.a.analysis.SetText(colorTag(p.a.cfg.Theme.Msg) + tview.Escape(message) + "[-]")
	})
}
