package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
	ColorReverse = "\033[7m"

	EnterAltScreen = "\033[?1049h"
	ExitAltScreen  = "\033[?1049l"
	ClearScreen    = "\033[2J"
	ClearLine      = "\033[2K"
	MoveCursorHome = "\033[H"
	HideCursor     = "\033[?25l"
	ShowCursor     = "\033[?25h"
)

// GetDisplayWidth calculates the display width of a string
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads s with spaces to the given display width
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// PadLeft right-aligns s within the given display width
func PadLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

// Truncate cuts s to width display cells, appending an ellipsis when cut
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatStatus formats a status line (Yellow)
func FormatStatus(text string) string {
	return fmt.Sprintf("%s%s%s", ColorYellow, text, ColorReset)
}

// MoveCursor returns ANSI sequence to move cursor to specific position
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}

// HorizontalRule returns a line of width box-drawing characters
func HorizontalRule(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("─", width)
}
