package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24

	// Lines used around the plot: title, axis, labels, selection marker,
	// cursor info, status and key hints
	chromeLines = 8
	minPlotRows = 3
)

// Sizer derives chart dimensions from the terminal size
type Sizer struct {
	Width  int
	Height int
}

func NewSizer(width, height int) *Sizer {
	return &Sizer{Width: width, Height: height}
}

// CurrentSizer reads the terminal size of stdout, with a fallback when stdout
// is not a terminal
func CurrentSizer() *Sizer {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = fallbackWidth, fallbackHeight
	}
	util.LogDebugf("Terminal size %dx%d", width, height)
	return NewSizer(width, height)
}

// PlotWidth returns the columns left for bars after the y-axis labels
func (s Sizer) PlotWidth(labelWidth int) int {
	w := s.Width - labelWidth - 2
	if w < 1 {
		return 1
	}
	return w
}

// PlotHeight returns the rows available for bars
func (s Sizer) PlotHeight() int {
	h := s.Height - chromeLines
	if h < minPlotRows {
		return minPlotRows
	}
	return h
}

// AvailableLines returns the lines left after header and footer, never negative
func (s Sizer) AvailableLines(headerLines, footerLines int) int {
	lines := s.Height - headerLines - footerLines
	if lines < 0 {
		return 0
	}
	return lines
}

// PadString pads a string to a specific display width, handling wide characters
func (s Sizer) PadString(str string, width int, leftAlign bool) string {
	actualWidth := runewidth.StringWidth(str)
	if actualWidth >= width {
		return str
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return str + padding
	}
	return padding + str
}
