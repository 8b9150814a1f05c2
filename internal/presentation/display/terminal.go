package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// DisplayConfig holds the static parts of the screen
type DisplayConfig struct {
	Title  string
	Source string
	Width  int
}

// TerminalDisplay draws the chart screen into the alternate screen buffer
type TerminalDisplay struct {
	config            *DisplayConfig
	out               io.Writer
	inAlternateScreen bool
}

func NewTerminalDisplay(config *DisplayConfig) *TerminalDisplay {
	return NewTerminalDisplayWithWriter(config, os.Stdout)
}

// NewTerminalDisplayWithWriter renders into w instead of stdout
func NewTerminalDisplayWithWriter(config *DisplayConfig, w io.Writer) *TerminalDisplay {
	if config.Title == "" {
		config.Title = "Simulation Monitor"
	}
	return &TerminalDisplay{config: config, out: w}
}

// SetWidth updates the width used for rules after a resize
func (td *TerminalDisplay) SetWidth(width int) {
	td.config.Width = width
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	if !td.inAlternateScreen {
		fmt.Fprint(td.out, util.EnterAltScreen)
		fmt.Fprint(td.out, util.ClearScreen)
		fmt.Fprint(td.out, util.MoveCursorHome)
		fmt.Fprint(td.out, util.HideCursor)
		td.inAlternateScreen = true
	}
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	if td.inAlternateScreen {
		fmt.Fprint(td.out, util.ClearScreen)
		fmt.Fprint(td.out, util.MoveCursorHome)
		fmt.Fprint(td.out, util.ShowCursor)
		fmt.Fprint(td.out, util.ExitAltScreen)
		td.inAlternateScreen = false
	}
}

// ClearScreen clears the alternate screen buffer
func (td *TerminalDisplay) ClearScreen() {
	fmt.Fprint(td.out, util.ClearScreen)
	fmt.Fprint(td.out, util.MoveCursorHome)
}

// Render draws one frame
func (td *TerminalDisplay) Render(chart *TerminalChart, state model.InteractionState, chrome *Chrome) {
	var b strings.Builder
	b.WriteString(util.MoveCursorHome)

	for _, line := range td.Frame(chart, state, chrome) {
		b.WriteString(util.ClearLine)
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	// Clear whatever the previous frame left below
	b.WriteString("\033[J")

	fmt.Fprint(td.out, b.String())
}

// Frame builds the lines of one frame
func (td *TerminalDisplay) Frame(chart *TerminalChart, state model.InteractionState, chrome *Chrome) []string {
	if state.ShowHelp {
		return td.helpLines()
	}

	lines := []string{td.headerLine(state, chrome), util.HorizontalRule(td.width())}

	if chart != nil {
		lines = append(lines, chart.Lines()...)
	}

	lines = append(lines, util.HorizontalRule(td.width()))
	if state.StatusMessage != "" {
		lines = append(lines, util.FormatStatus("  Status: "+state.StatusMessage))
	}
	lines = append(lines, "  ←/→ move  space mark  enter zoom  0 reset  r refresh  p pause  ? help  q quit")
	return lines
}

func (td *TerminalDisplay) headerLine(state model.InteractionState, chrome *Chrome) string {
	header := util.FormatHeaderTitle(td.config.Title)
	if td.config.Source != "" {
		header += "  " + td.config.Source
	}
	header += "  filter: " + util.FormatRange(state.Filter.Start, state.Filter.End)

	if chrome != nil {
		if spinner := chrome.Indicator(); spinner != "" {
			msg := state.LoadingMessage
			if msg == "" {
				msg = "Loading data..."
			}
			header += "  " + spinner + " " + msg
		}
	}
	if state.IsPaused {
		header += "  [paused]"
	}
	return header
}

func (td *TerminalDisplay) helpLines() []string {
	return []string{
		util.FormatHeaderTitle(td.config.Title + " - Help"),
		strings.Repeat("═", td.width()),
		"",
		"Keyboard Shortcuts:",
		"",
		"  ←/→ or h/l   - Move the cursor between bars",
		"  Home/End     - Jump to the first or last bar",
		"  space        - Mark/unmark the selection anchor",
		"  enter or z   - Zoom into the selection (or the bar under the cursor)",
		"  0 or u       - Reset the zoom",
		"  r            - Force refresh data",
		"  p            - Pause/unpause auto-refresh",
		"  ?            - Show this help",
		"  q/Esc/Ctrl+C - Quit the program",
		"",
		strings.Repeat("═", td.width()),
		"Press '?' to return...",
	}
}

func (td *TerminalDisplay) width() int {
	if td.config.Width <= 0 {
		return 80
	}
	return td.config.Width
}
