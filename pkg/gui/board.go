package gui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/rivo/tview"
)

const (
	numrows = 8
	numcols = 8
)

// Board draws a position into a table, ranks down the left and files along
// the bottom.
type Board struct {
	*tview.Table
	theme      Theme
	flipped    bool
	position   *chess.Position
	highlights map[chess.Square]bool
}

func NewBoard(theme Theme) *Board {
	b := &Board{
		Table:      tview.NewTable(),
		theme:      theme,
		position:   chess.NewGame().Position(),
		highlights: make(map[chess.Square]bool),
	}
	b.SetSelectable(false, false)
	b.render()
	return b
}

// SetPosition shows fen. An unparsable fen leaves the board as it was.
func (b *Board) SetPosition(fen string) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return
	}
	b.position = chess.NewGame(opt).Position()
	b.render()
}

// Highlight marks the squares of a coordinate move such as "e2e4". An empty
// move clears the highlight.
func (b *Board) Highlight(uci string) {
	b.highlights = make(map[chess.Square]bool)
	if len(uci) >= 4 {
		if from, ok := parseSquare(uci[0:2]); ok {
			b.highlights[from] = true
		}
		if to, ok := parseSquare(uci[2:4]); ok {
			b.highlights[to] = true
		}
	}
	b.render()
}

func (b *Board) Flip() {
	b.flipped = !b.flipped
	b.render()
}

func (b *Board) Flipped() bool { return b.flipped }

func (b *Board) render() {
	board := b.position.Board()
	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			switch {
			case r == numrows && f == 0:
				b.SetCell(r, f, tview.NewTableCell("").SetSelectable(false))
			case f == 0:
				rank := posToSquare(r, 1, b.flipped).Rank()
				b.SetCell(r, f, tview.NewTableCell(rank.String()).
					SetAlign(tview.AlignCenter).
					SetTextColor(b.theme.Rank).
					SetSelectable(false))
			case r == numrows:
				file := posToSquare(0, f, b.flipped).File()
				b.SetCell(r, f, tview.NewTableCell(fmt.Sprintf(" %s ", file.String())).
					SetAlign(tview.AlignCenter).
					SetTextColor(b.theme.File).
					SetSelectable(false))
			default:
				sq := posToSquare(r, f, b.flipped)
				p := board.Piece(sq)
				cell := tview.NewTableCell(fmt.Sprintf(" %s ", pieceText(p))).
					SetAlign(tview.AlignCenter).
					SetBackgroundColor(squareToColor(sq, b.highlights, b.theme)).
					SetReference(sq)
				if p.Color() == chess.Black {
					cell.SetTextColor(b.theme.Black)
				} else {
					cell.SetTextColor(b.theme.White)
				}
				b.SetCell(r, f, cell)
			}
		}
	}
}

func pieceText(p chess.Piece) string {
	if p == chess.NoPiece {
		return " "
	}
	return p.String()
}

// posToSquare maps a table cell to a square. Column 0 holds the rank labels.
func posToSquare(row, col int, flipped bool) chess.Square {
	rank := numrows - row - 1
	file := col - 1
	if flipped {
		rank = row
		file = numcols - col
	}
	return chess.Square(rank*8 + file)
}

func squareToColor(sq chess.Square, highlights map[chess.Square]bool, theme Theme) tcell.Color {
	if highlights[sq] {
		return theme.SquareHigh
	}
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return theme.SquareDark
	}
	return theme.SquareLight
}

func parseSquare(name string) (chess.Square, bool) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.Square(int(name[1]-'1')*8 + int(name[0]-'a')), true
}
