package engine

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want MessageType
	}{
		{"uciok", TypeHandshake},
		{"  uciok  ", TypeHandshake},
		{"readyok", TypeOther},
		{"id name Stockfish 16", TypeOther},
		{"option name Hash type spin default 16 min 1 max 33554432", TypeOther},
		{"info depth 18 score cp 34 pv e2e4 e7e5", TypeSearchInfo},
		{"info string NNUE evaluation using nn-5af11540bbfe.nnue", TypeSearchInfo},
		{"bestmove e2e4 ponder e7e5", TypeBestMove},
		{"bestmove", TypeOther},
		{"", TypeOther},
	}
	for _, tc := range tests {
		if got := Parse(tc.line).Type; got != tc.want {
			t.Errorf("Parse(%q).Type = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestParseSearchInfo(t *testing.T) {
	msg := Parse("info depth 18 seldepth 24 multipv 1 score cp 34 nodes 1234 nps 99 time 12 pv e2e4 e7e5")
	info := msg.Info
	if !info.Complete() {
		t.Fatalf("Complete() = false")
	}
	if *info.Depth != 18 {
		t.Fatalf("depth = %d, want 18", *info.Depth)
	}
	if *info.ScoreCP != 34 {
		t.Fatalf("score cp = %d, want 34", *info.ScoreCP)
	}
	if len(info.PV) != 2 || info.PV[0] != "e2e4" || info.PV[1] != "e7e5" {
		t.Fatalf("pv = %v", info.PV)
	}
}

func TestParseSearchInfoBoundsAndMate(t *testing.T) {
	info := Parse("info depth 20 score cp -15 upperbound nodes 10 pv d2d4").Info
	if info.ScoreCP == nil || *info.ScoreCP != -15 {
		t.Fatalf("score cp = %v, want -15", info.ScoreCP)
	}
	mate := Parse("info depth 22 score mate -3 pv h7h8q").Info
	if mate.Mate == nil || *mate.Mate != -3 {
		t.Fatalf("mate = %v, want -3", mate.Mate)
	}
	if !mate.Complete() {
		t.Fatalf("mate line should be complete")
	}
}

func TestParseIncompleteInfo(t *testing.T) {
	for _, line := range []string{
		"info depth 5 currmove e2e4 currmovenumber 1",
		"info depth 5 score cp 10",
		"info score cp 10 pv e2e4",
		"info string hello pv e2e4",
	} {
		if Parse(line).Info.Complete() {
			t.Errorf("Parse(%q).Info.Complete() = true", line)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	msg := Parse("bestmove g1f3 ponder d7d5")
	if msg.BestMove != "g1f3" || msg.Ponder != "d7d5" {
		t.Fatalf("bestmove = %q ponder = %q", msg.BestMove, msg.Ponder)
	}
}

func TestFormatScore(t *testing.T) {
	ev := Evaluation{ScoreCP: 34}
	if ev.Pawns() != 0.34 {
		t.Fatalf("Pawns() = %v, want 0.34", ev.Pawns())
	}
	if ev.FormatScore() != "0.34" {
		t.Fatalf("FormatScore() = %q", ev.FormatScore())
	}
	if got := (Evaluation{ScoreCP: -120}).FormatScore(); got != "-1.20" {
		t.Fatalf("FormatScore() = %q, want -1.20", got)
	}
	if got := (Evaluation{Mate: intPtr(3)}).FormatScore(); got != "#3" {
		t.Fatalf("FormatScore() = %q, want #3", got)
	}
}
