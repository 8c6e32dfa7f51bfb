// Package engine drives a UCI chess engine running as a background worker and
// turns its output into evaluations of the position the user is looking at.
package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog"
)

// Bridge owns the engine session. Only one search runs at a time: a request
// for a new position while a search is running stops that search and is
// dispatched once the engine acknowledges with bestmove. Output is therefore
// always attributable to exactly one position, and output for a position
// that is no longer the latest request is dropped.
type Bridge struct {
	launch  Launcher
	onEval  func(Evaluation)
	log     zerolog.Logger
	threads int
	hashMB  int

	mu        sync.Mutex
	transport Transport
	started   bool
	ready     bool
	failed    bool

	latestFEN    string
	pendingFEN   string
	pendingDepth int

	searching bool
	searchFEN string
	stopSent  bool

	done chan struct{}
}

type Option func(*Bridge)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

func WithThreads(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.threads = n
		}
	}
}

func WithHash(mb int) Option {
	return func(b *Bridge) {
		if mb > 0 {
			b.hashMB = mb
		}
	}
}

// NewBridge returns a bridge that reports evaluations to onEval. onEval is
// called from the bridge's reader goroutine.
func NewBridge(launch Launcher, onEval func(Evaluation), opts ...Option) *Bridge {
	b := &Bridge{
		launch:  launch,
		onEval:  onEval,
		log:     zerolog.Nop(),
		threads: DefaultThreads,
		hashMB:  DefaultHashMB,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the worker and sends the UCI handshake. Readiness arrives
// asynchronously; requests made before it are coalesced into one pending
// position. A failure leaves the bridge inert for the rest of the session.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	t, err := b.launch(ctx)
	if err != nil {
		b.fail(err)
		close(b.done)
		return err
	}

	b.mu.Lock()
	b.transport = t
	err = t.Send(uci.CmdUCI.String())
	b.mu.Unlock()
	if err != nil {
		b.fail(err)
	}

	go b.readLoop(t)
	return err
}

func (b *Bridge) readLoop(t Transport) {
	defer close(b.done)
	for line := range t.Lines() {
		b.OnMessage(line)
	}
	err := t.Err()
	if err == nil {
		err = ErrEngineStopped
	}
	b.fail(err)
}

func (b *Bridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failed {
		return
	}
	b.failed = true
	b.ready = false
	b.searching = false
	b.log.Error().Err(err).Msg("engine unavailable, evaluation disabled")
}

// Ready reports whether the handshake completed and the worker is alive.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Failed reports whether the worker could not be started or has gone away.
// A failed bridge stays failed for the rest of the session.
func (b *Bridge) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

// RequestEvaluation asks for fen to be searched to depth. It never blocks on
// the engine; an invalid fen is the only error.
func (b *Bridge) RequestEvaluation(fen string, depth int) error {
	fen, err := normalizeFEN(fen)
	if err != nil {
		return err
	}
	if depth <= 0 {
		depth = DefaultDepth
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.latestFEN = fen
	if !b.ready {
		b.pendingFEN, b.pendingDepth = fen, depth
		return nil
	}
	if b.searching {
		if fen == b.searchFEN && !b.stopSent {
			b.pendingFEN = ""
			return nil
		}
		b.pendingFEN, b.pendingDepth = fen, depth
		if !b.stopSent {
			b.stopSent = true
			b.sendLocked(uci.CmdStop.String())
		}
		return nil
	}
	b.dispatchLocked(fen, depth)
	return nil
}

func (b *Bridge) dispatchLocked(fen string, depth int) {
	b.pendingFEN = ""
	if !b.sendLocked("position fen " + fen) {
		return
	}
	if !b.sendLocked(uci.CmdGo{Depth: depth}.String()) {
		return
	}
	b.searching = true
	b.searchFEN = fen
	b.stopSent = false
	b.log.Debug().Str("fen", fen).Int("depth", depth).Msg("search dispatched")
}

func (b *Bridge) sendLocked(cmd string) bool {
	if b.transport == nil || b.failed {
		return false
	}
	if err := b.transport.Send(cmd); err != nil {
		b.failed = true
		b.ready = false
		b.searching = false
		b.log.Error().Err(err).Str("cmd", cmd).Msg("engine write failed")
		return false
	}
	return true
}

// OnMessage consumes one line of engine output.
func (b *Bridge) OnMessage(line string) {
	msg := Parse(line)
	switch msg.Type {
	case TypeHandshake:
		b.onHandshake()
	case TypeSearchInfo:
		if !msg.Info.Complete() {
			return
		}
		if ev, ok := b.current(msg.Info); ok && b.onEval != nil {
			b.onEval(ev)
		}
	case TypeBestMove:
		b.onBestMove()
	}
}

func (b *Bridge) onHandshake() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready || b.failed {
		return
	}
	b.ready = true
	b.sendLocked(uci.CmdSetOption{Name: "Threads", Value: strconv.Itoa(b.threads)}.String())
	b.sendLocked(uci.CmdSetOption{Name: "Hash", Value: strconv.Itoa(b.hashMB)}.String())
	b.log.Info().Int("threads", b.threads).Int("hash", b.hashMB).Msg("engine ready")
	if b.pendingFEN != "" {
		b.dispatchLocked(b.pendingFEN, b.pendingDepth)
	}
}

// current converts si into an Evaluation if it belongs to the latest request.
func (b *Bridge) current(si SearchInfo) (Evaluation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.searching || b.searchFEN != b.latestFEN {
		return Evaluation{}, false
	}
	ev := Evaluation{
		FEN:   b.searchFEN,
		Depth: *si.Depth,
		PV:    append([]string(nil), si.PV...),
	}
	if si.ScoreCP != nil {
		ev.ScoreCP = *si.ScoreCP
	}
	if si.Mate != nil {
		ev.Mate = intPtr(*si.Mate)
	}
	return ev, true
}

func (b *Bridge) onBestMove() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searching = false
	b.stopSent = false
	if b.ready && b.pendingFEN != "" {
		b.dispatchLocked(b.pendingFEN, b.pendingDepth)
	}
}

// Close shuts the worker down and waits for the reader to finish.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	t := b.transport
	started := b.started
	b.mu.Unlock()
	if !started {
		return nil
	}
	var err error
	if t != nil {
		err = t.Close(ctx)
	}
	select {
	case <-b.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}
