package gui

import (
	"strconv"

	"github.com/rivo/tview"

	"github.com/qnkhuat/chesscoach/pkg/history"
)

// MoveList shows a history two plies per row and jumps to a ply when one is
// selected.
type MoveList struct {
	*tview.Table
	cells map[int][2]int
}

func NewMoveList(onSelect func(ply int)) *MoveList {
	ml := &MoveList{Table: tview.NewTable(), cells: make(map[int][2]int)}
	ml.SetSelectable(true, true)
	ml.SetSelectedFunc(func(row, col int) {
		ref := ml.GetCell(row, col).GetReference()
		if ply, ok := ref.(int); ok && onSelect != nil {
			onSelect(ply)
		}
	})
	return ml
}

// SetHistory replaces the rows with h.
func (ml *MoveList) SetHistory(h *history.History) {
	ml.Clear()
	ml.cells = make(map[int][2]int)
	if h == nil {
		return
	}
	first := 0
	for i, m := range h.Moves() {
		number, white := m.MoveNumber, m.White
		if i == 0 {
			first = number
		}
		row := number - first
		col := 2
		if white {
			col = 1
		}
		ml.SetCell(row, 0, tview.NewTableCell(strconv.Itoa(number)+".").SetSelectable(false))
		if i == 0 && !white {
			ml.SetCell(row, 1, tview.NewTableCell("...").SetSelectable(false))
		}
		ml.SetCell(row, col, tview.NewTableCell(m.SAN).SetReference(m.Index).SetExpansion(1))
		ml.cells[m.Index] = [2]int{row, col}
	}
}

// Mark selects the cell of ply, or the top row for the start position.
func (ml *MoveList) Mark(ply int) {
	if pos, ok := ml.cells[ply]; ok {
		ml.Select(pos[0], pos[1])
		return
	}
	ml.ScrollToBeginning()
}

// Cell returns the table coordinates of ply.
func (ml *MoveList) Cell(ply int) (row, col int, ok bool) {
	pos, ok := ml.cells[ply]
	return pos[0], pos[1], ok
}
