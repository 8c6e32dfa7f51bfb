package gui

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"

	"github.com/qnkhuat/chesscoach/pkg/engine"
	"github.com/qnkhuat/chesscoach/pkg/history"
)

func TestPosToSquare(t *testing.T) {
	tests := []struct {
		row, col int
		flipped  bool
		want     chess.Square
	}{
		{0, 1, false, chess.A8},
		{7, 1, false, chess.A1},
		{7, 8, false, chess.H1},
		{0, 1, true, chess.H1},
		{7, 8, true, chess.A8},
		{3, 5, false, chess.E5},
	}
	for _, tc := range tests {
		if got := posToSquare(tc.row, tc.col, tc.flipped); got != tc.want {
			t.Errorf("posToSquare(%d, %d, %v) = %s, want %s", tc.row, tc.col, tc.flipped, got, tc.want)
		}
	}
}

func TestSquareToColor(t *testing.T) {
	hl := map[chess.Square]bool{chess.E4: true}
	if got := squareToColor(chess.A1, hl, ThemeClassic); got != ThemeClassic.SquareDark {
		t.Errorf("a1 = %v, want dark", got)
	}
	if got := squareToColor(chess.B1, hl, ThemeClassic); got != ThemeClassic.SquareLight {
		t.Errorf("b1 = %v, want light", got)
	}
	if got := squareToColor(chess.E4, hl, ThemeClassic); got != ThemeClassic.SquareHigh {
		t.Errorf("e4 = %v, want highlight", got)
	}
}

func cellText(b *Board, sq chess.Square) string {
	for r := 0; r < numrows; r++ {
		for f := 1; f <= numcols; f++ {
			if posToSquare(r, f, b.Flipped()) == sq {
				return strings.TrimSpace(b.GetCell(r, f).Text)
			}
		}
	}
	return ""
}

func TestBoardPosition(t *testing.T) {
	b := NewBoard(ThemeBasic)
	if got := cellText(b, chess.A8); got != chess.BlackRook.String() {
		t.Fatalf("a8 = %q, want black rook", got)
	}
	if got := strings.TrimSpace(b.GetCell(0, 0).Text); got != "8" {
		t.Fatalf("rank label = %q, want 8", got)
	}

	b.SetPosition("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if got := cellText(b, chess.E4); got != chess.WhitePawn.String() {
		t.Fatalf("e4 = %q, want white pawn", got)
	}
	if got := cellText(b, chess.E2); got != "" {
		t.Fatalf("e2 = %q, want empty", got)
	}

	b.SetPosition("garbage")
	if got := cellText(b, chess.E4); got != chess.WhitePawn.String() {
		t.Fatalf("bad fen changed the board")
	}

	b.Flip()
	if got := strings.TrimSpace(b.GetCell(0, 0).Text); got != "1" {
		t.Fatalf("flipped rank label = %q, want 1", got)
	}
	if got := strings.TrimSpace(b.GetCell(numrows, 1).Text); got != "h" {
		t.Fatalf("flipped file label = %q, want h", got)
	}
}

func TestBoardHighlight(t *testing.T) {
	b := NewBoard(ThemeBasic)
	b.Highlight("e2e4")
	if !b.highlights[chess.E2] || !b.highlights[chess.E4] || len(b.highlights) != 2 {
		t.Fatalf("highlights = %v", b.highlights)
	}
	b.Highlight("")
	if len(b.highlights) != 0 {
		t.Fatalf("highlights not cleared: %v", b.highlights)
	}
}

func TestParseSquare(t *testing.T) {
	if sq, ok := parseSquare("h8"); !ok || sq != chess.H8 {
		t.Fatalf("parseSquare(h8) = %v, %v", sq, ok)
	}
	for _, bad := range []string{"", "i1", "a9", "e"} {
		if _, ok := parseSquare(bad); ok {
			t.Errorf("parseSquare(%q) ok", bad)
		}
	}
}

func TestMoveList(t *testing.T) {
	h, err := history.Load("1. e4 e5 2. Nf3 Nc6 3. Bb5")
	if err != nil {
		t.Fatal(err)
	}
	var selected []int
	ml := NewMoveList(func(ply int) { selected = append(selected, ply) })
	ml.SetHistory(h)

	want := map[int][2]int{0: {0, 1}, 1: {0, 2}, 2: {1, 1}, 3: {1, 2}, 4: {2, 1}}
	for ply, pos := range want {
		row, col, ok := ml.Cell(ply)
		if !ok || row != pos[0] || col != pos[1] {
			t.Errorf("Cell(%d) = %d, %d, %v; want %v", ply, row, col, ok, pos)
		}
	}
	if got := ml.GetCell(1, 0).Text; got != "2." {
		t.Fatalf("number cell = %q", got)
	}
	if got := ml.GetCell(2, 1).Text; got != "Bb5" {
		t.Fatalf("move cell = %q", got)
	}
	if ref, _ := ml.GetCell(1, 2).GetReference().(int); ref != 3 {
		t.Fatalf("reference = %v, want 3", ml.GetCell(1, 2).GetReference())
	}
}

func TestMoveListBlackFirst(t *testing.T) {
	pgn := `[FEN "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"]
[SetUp "1"]

2... Nc6 3. Bb5 a6`
	h, err := history.Load(pgn)
	if err != nil {
		t.Fatal(err)
	}
	ml := NewMoveList(nil)
	ml.SetHistory(h)
	if row, col, _ := ml.Cell(0); row != 0 || col != 2 {
		t.Fatalf("Cell(0) = %d, %d; want 0, 2", row, col)
	}
	if row, col, _ := ml.Cell(1); row != 1 || col != 1 {
		t.Fatalf("Cell(1) = %d, %d; want 1, 1", row, col)
	}
	if got := ml.GetCell(0, 1).Text; got != "..." {
		t.Fatalf("placeholder = %q", got)
	}
}

func TestImportThemes(t *testing.T) {
	custom := ThemeHex{Name: "mine", SquareDark: "#000080", SquareLight: "#008000", SquareHigh: "#ff0000"}
	got, err := ImportThemes("mine", []ThemeHex{custom})
	if err != nil {
		t.Fatal(err)
	}
	if got.SquareDark != tcell.GetColor("#000080") {
		t.Fatalf("SquareDark = %v", got.SquareDark)
	}
	if got, err := ImportThemes("classic", nil); err != nil || got.SquareDark != tcell.ColorBlue {
		t.Fatalf("ImportThemes(classic) = %v, %v", got, err)
	}
	if _, err := ImportThemes("nope", nil); err != ErrNoTheme {
		t.Fatalf("ImportThemes(nope) error = %v", err)
	}
	if hex := ThemeBasic.Hex(); hex.Name != "basic" || hex.Rank == "" {
		t.Fatalf("Hex() = %+v", hex)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		0:                              "0:00",
		5 * time.Second:                "0:05",
		75 * time.Second:               "1:15",
		10*time.Minute + 3*time.Second: "10:03",
	}
	for d, want := range tests {
		if got := formatElapsed(d); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestStopwatch(t *testing.T) {
	var ticks int32
	sw := StartStopwatch(5*time.Millisecond, func(time.Duration) { atomic.AddInt32(&ticks, 1) })
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ticks) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no tick")
		}
		time.Sleep(time.Millisecond)
	}
	sw.Stop()
	sw.Stop()
	time.Sleep(20 * time.Millisecond)
	n := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&ticks) != n {
		t.Fatal("ticks after Stop")
	}
}

func TestFormatEvaluation(t *testing.T) {
	ev := engine.Evaluation{FEN: "x", Depth: 18, ScoreCP: 34}
	got := formatEvaluation(ev, "1. e4 e5", ThemeClassic)
	if !strings.Contains(got, "+0.34") || !strings.Contains(got, "depth 18") || !strings.HasSuffix(got, "\n1. e4 e5") {
		t.Fatalf("formatEvaluation() = %q", got)
	}
	if !strings.HasPrefix(got, colorTag(ThemeClassic.MeterWin)) {
		t.Fatalf("positive score not in win color: %q", got)
	}

	mate := -2
	got = formatEvaluation(engine.Evaluation{Depth: 30, Mate: &mate}, "", ThemeClassic)
	if !strings.Contains(got, "#-2") || !strings.HasPrefix(got, colorTag(ThemeClassic.MeterLose)) {
		t.Fatalf("formatEvaluation(mate) = %q", got)
	}
}

func TestColorTag(t *testing.T) {
	if got := colorTag(tcell.ColorDefault); got != "[-]" {
		t.Fatalf("colorTag(default) = %q", got)
	}
	if got := colorTag(tcell.NewHexColor(0x00ff00)); got != "[#00ff00]" {
		t.Fatalf("colorTag(green) = %q", got)
	}
}
