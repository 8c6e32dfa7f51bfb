package history

import (
	"errors"
	"testing"

	"github.com/qnkhuat/chesscoach/pkg/rules"
)

const italian = `[Event "Club"]
[White "Adams"]
[Black "Brown"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 {Italian} Bc5 *`

func TestLoad(t *testing.T) {
	h, err := Load(italian)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", h.Len())
	}
	want := []struct {
		san, uci string
	}{
		{"e4", "e2e4"}, {"e5", "e7e5"}, {"Nf3", "g1f3"},
		{"Nc6", "b8c6"}, {"Bc4", "f1c4"}, {"Bc5", "f8c5"},
	}
	for i, w := range want {
		m, err := h.At(i)
		if err != nil {
			t.Fatalf("At(%d) error = %v", i, err)
		}
		if m.Index != i || m.SAN != w.san || m.UCI != w.uci {
			t.Errorf("At(%d) = %+v, want %s/%s", i, m, w.san, w.uci)
		}
	}
	if h.StartFEN() != rules.StartFEN {
		t.Fatalf("StartFEN() = %q", h.StartFEN())
	}
	if h.Tag("White") != "Adams" {
		t.Fatalf("Tag(White) = %q", h.Tag("White"))
	}
	last, _ := h.At(5)
	if last.FEN != "r1bqk1nr/pppp1ppp/2n5/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4" {
		t.Fatalf("last FEN = %q", last.FEN)
	}
}

func TestAtOutOfRange(t *testing.T) {
	h, err := Load(italian)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{-1, 6, 100} {
		if _, err := h.At(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("At(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	fen, err := h.FEN(-1)
	if err != nil || fen != h.StartFEN() {
		t.Fatalf("FEN(-1) = %q, %v", fen, err)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"   \n",
		"1. e4 e5 2. Ke3",
		"1. e4 e5 2. Qxf7 Kxf7 3. Qh5",
	}
	for _, pgn := range tests {
		h, err := Load(pgn)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Load(%q) error = %v, want *ParseError", pgn, err)
		}
		if h != nil {
			t.Errorf("Load(%q) returned a partial history", pgn)
		}
	}
}

func TestLoadLatin1(t *testing.T) {
	pgn := "[Event \"Torneio S\xe3o Paulo\"]\n\n1. d4 d5 *"
	h, err := Load(pgn)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Tag("Event") != "Torneio São Paulo" {
		t.Fatalf("Tag(Event) = %q", h.Tag("Event"))
	}
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
}

func TestMoveNumber(t *testing.T) {
	h, err := Load("1. e4 e5 2. Nf3 *")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"1.", "1...", "2."}
	for i, w := range want {
		m, _ := h.At(i)
		if got := m.Number(); got != w {
			t.Errorf("At(%d).Number() = %q, want %q", i, got, w)
		}
	}
}

func TestMoveNumberBlackFirst(t *testing.T) {
	h, err := Load(`[SetUp "1"]
[FEN "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"]

1... e5 2. Nf3 *`)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"1...", "2."}
	for i, w := range want {
		m, _ := h.At(i)
		if got := m.Number(); got != w {
			t.Errorf("At(%d).Number() = %q, want %q", i, got, w)
		}
	}
}

func TestMoveSlot(t *testing.T) {
	if n, white := moveSlot("8/8/8/8/8/8/8/8 b - - 0 41"); n != 41 || white {
		t.Fatalf("moveSlot() = %d, %v", n, white)
	}
	if n, white := moveSlot("bad"); n != 1 || !white {
		t.Fatalf("moveSlot(bad) = %d, %v", n, white)
	}
}
