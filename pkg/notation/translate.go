// Package notation renders engine lines for people.
package notation

import (
	"strconv"
	"strings"

	"github.com/qnkhuat/chesscoach/pkg/rules"
)

// Translate replays the coordinate moves in pv from fen and returns them as
// numbered SAN, e.g. "1. e4 e5 2. Nf3" or "3... Nc6 4. Bb5". Translation stops
// at the first move that cannot be played; whatever came before is returned.
func Translate(fen string, pv []string) string {
	game, err := rules.NewFromFEN(fen)
	if err != nil {
		return ""
	}
	return TranslateOn(game, pv)
}

// TranslateOn is Translate on a scratch game the caller owns.
func TranslateOn(game rules.Game, pv []string) string {
	var sb strings.Builder
	for i, token := range pv {
		number := game.MoveNumber()
		turn := game.Turn()
		m, err := game.Move(token)
		if err != nil {
			break
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case turn == rules.White:
			sb.WriteString(strconv.Itoa(number))
			sb.WriteString(". ")
		case i == 0:
			sb.WriteString(strconv.Itoa(number))
			sb.WriteString("... ")
		}
		sb.WriteString(m.SAN)
	}
	return sb.String()
}
