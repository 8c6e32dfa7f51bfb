package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Themes should stick to the xterm 256 color palette
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme colors the board and the panels around it.
type Theme struct {
	Name        string      `json:"name"`
	SquareDark  tcell.Color `json:"squareDark"`
	SquareLight tcell.Color `json:"squareLight"`
	SquareHigh  tcell.Color `json:"squareHigh"`
	White       tcell.Color `json:"white"`
	Black       tcell.Color `json:"black"`
	Rank        tcell.Color `json:"rank"`
	File        tcell.Color `json:"file"`
	Msg         tcell.Color `json:"msg"`
	MeterWin    tcell.Color `json:"meterWin"`
	MeterLose   tcell.Color `json:"meterLose"`
	Score       tcell.Color `json:"score"`
}

// ThemeHex is Theme as it appears in a config file.
type ThemeHex struct {
	Name        string `json:"name"`
	SquareDark  string `json:"squareDark"`
	SquareLight string `json:"squareLight"`
	SquareHigh  string `json:"squareHigh"`
	White       string `json:"white"`
	Black       string `json:"black"`
	Rank        string `json:"rank"`
	File        string `json:"file"`
	Msg         string `json:"msg"`
	MeterWin    string `json:"meterWin"`
	MeterLose   string `json:"meterLose"`
	Score       string `json:"score"`
}

// fmtHex keeps ColorDefault distinguishable from black.
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:        t.Name,
		SquareDark:  fmtHex(t.SquareDark.Hex()),
		SquareLight: fmtHex(t.SquareLight.Hex()),
		SquareHigh:  fmtHex(t.SquareHigh.Hex()),
		White:       fmtHex(t.White.Hex()),
		Black:       fmtHex(t.Black.Hex()),
		Rank:        fmtHex(t.Rank.Hex()),
		File:        fmtHex(t.File.Hex()),
		Msg:         fmtHex(t.Msg.Hex()),
		MeterWin:    fmtHex(t.MeterWin.Hex()),
		MeterLose:   fmtHex(t.MeterLose.Hex()),
		Score:       fmtHex(t.Score.Hex()),
	}
}

func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:        t.Name,
		SquareDark:  tcell.GetColor(t.SquareDark),
		SquareLight: tcell.GetColor(t.SquareLight),
		SquareHigh:  tcell.GetColor(t.SquareHigh),
		White:       tcell.GetColor(t.White),
		Black:       tcell.GetColor(t.Black),
		Rank:        tcell.GetColor(t.Rank),
		File:        tcell.GetColor(t.File),
		Msg:         tcell.GetColor(t.Msg),
		MeterWin:    tcell.GetColor(t.MeterWin),
		MeterLose:   tcell.GetColor(t.MeterLose),
		Score:       tcell.GetColor(t.Score),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns the theme called want, looking at the given themes
// before the built-in ones.
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	for _, t := range BuiltinThemes {
		if t.Name == want {
			return t, nil
		}
	}
	return Theme{}, ErrNoTheme
}

var ThemeBasic = Theme{
	Name:        "basic",
	SquareDark:  tcell.Color188,
	SquareLight: tcell.Color230,
	SquareHigh:  tcell.Color226,
	White:       tcell.Color232,
	Black:       tcell.Color232,
	Rank:        tcell.Color247,
	File:        tcell.Color247,
	Msg:         tcell.Color160,
	MeterWin:    tcell.Color122,
	MeterLose:   tcell.Color167,
	Score:       tcell.Color247,
}

// ThemeClassic is the blue and green board chessterm always had.
var ThemeClassic = Theme{
	Name:        "classic",
	SquareDark:  tcell.ColorBlue,
	SquareLight: tcell.ColorGreen,
	SquareHigh:  tcell.ColorRed,
	White:       tcell.ColorWhite,
	Black:       tcell.ColorBlack,
	Rank:        tcell.ColorDefault,
	File:        tcell.ColorDefault,
	Msg:         tcell.ColorRed,
	MeterWin:    tcell.ColorGreen,
	MeterLose:   tcell.ColorRed,
	Score:       tcell.ColorDefault,
}

var BuiltinThemes = []Theme{ThemeBasic, ThemeClassic}
