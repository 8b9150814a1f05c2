package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// Eighth-block characters, index = filled eighths of a cell
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// column is one plotted bar; it covers buckets [first, last]
type column struct {
	first int
	last  int
	count int
}

// ChartOptions sets the plot area in terminal cells
type ChartOptions struct {
	Width  int
	Height int
}

// TerminalChart is a vertical bar chart of a bucket series with a keyboard
// driven selection. When the series is wider than the plot, neighbouring
// buckets share a column.
type TerminalChart struct {
	series    []aggregator.Bucket
	columns   []column
	height    int
	peak      int
	cursor    int
	anchor    int
	onRange   func(start, end float64)
	destroyed bool
}

// NewTerminalChart lays out series for the given plot area
func NewTerminalChart(series []aggregator.Bucket, opts ChartOptions) *TerminalChart {
	width := opts.Width
	if width < 1 {
		width = 1
	}
	height := opts.Height
	if height < 1 {
		height = 1
	}

	c := &TerminalChart{
		series: series,
		height: height,
		anchor: -1,
	}
	c.columns = groupColumns(series, width)
	for _, col := range c.columns {
		if col.count > c.peak {
			c.peak = col.count
		}
	}
	if len(c.columns) > 0 {
		c.cursor = len(c.columns) - 1
	}
	return c
}

func groupColumns(series []aggregator.Bucket, width int) []column {
	n := len(series)
	if n == 0 {
		return nil
	}
	group := (n + width - 1) / width

	columns := make([]column, 0, (n+group-1)/group)
	for first := 0; first < n; first += group {
		last := first + group - 1
		if last >= n {
			last = n - 1
		}
		col := column{first: first, last: last}
		for i := first; i <= last; i++ {
			col.count += series[i].Count
		}
		columns = append(columns, col)
	}
	return columns
}

// OnRangeChanged registers the selection callback
func (c *TerminalChart) OnRangeChanged(fn func(start, end float64)) {
	c.onRange = fn
}

// Destroy detaches the chart; it ignores keys and renders nothing afterwards
func (c *TerminalChart) Destroy() {
	c.destroyed = true
	c.onRange = nil
}

// Destroyed reports whether Destroy was called
func (c *TerminalChart) Destroyed() bool {
	return c.destroyed
}

// Columns returns the number of plotted bars
func (c *TerminalChart) Columns() int {
	return len(c.columns)
}

// Cursor returns the column under the cursor
func (c *TerminalChart) Cursor() int {
	return c.cursor
}

// Selection returns the marked column span; ok is false without an anchor
func (c *TerminalChart) Selection() (lo, hi int, ok bool) {
	if c.anchor < 0 {
		return c.cursor, c.cursor, false
	}
	lo, hi = c.anchor, c.cursor
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// HandleKey applies a key to the selection and reports whether it was used
func (c *TerminalChart) HandleKey(ev interaction.KeyEvent) bool {
	if c.destroyed {
		return false
	}
	// Reset stays available on an empty chart so a zoom into a quiet hour can be undone
	if ev.Type == interaction.KeyChar && (ev.Key == '0' || ev.Key == 'u' || ev.Key == 'U') {
		c.anchor = -1
		c.fire(0, 1)
		return true
	}
	if len(c.columns) == 0 {
		return false
	}

	switch ev.Type {
	case interaction.KeyLeft:
		if c.cursor > 0 {
			c.cursor--
		}
		return true
	case interaction.KeyRight:
		if c.cursor < len(c.columns)-1 {
			c.cursor++
		}
		return true
	case interaction.KeyHome:
		c.cursor = 0
		return true
	case interaction.KeyEnd:
		c.cursor = len(c.columns) - 1
		return true
	case interaction.KeyEnter:
		c.zoom()
		return true
	case interaction.KeyChar:
		switch ev.Key {
		case ' ':
			if c.anchor < 0 {
				c.anchor = c.cursor
			} else {
				c.anchor = -1
			}
			return true
		case 'z', 'Z':
			c.zoom()
			return true
		case 'h':
			if c.cursor > 0 {
				c.cursor--
			}
			return true
		case 'l':
			if c.cursor < len(c.columns)-1 {
				c.cursor++
			}
			return true
		}
	}
	return false
}

// zoom reports the selected columns as fractions of the series
func (c *TerminalChart) zoom() {
	lo, hi, _ := c.Selection()
	c.anchor = -1

	n := float64(len(c.series))
	start := float64(c.columns[lo].first) / n
	end := float64(c.columns[hi].last+1) / n
	c.fire(start, end)
}

func (c *TerminalChart) fire(start, end float64) {
	if c.onRange != nil {
		c.onRange(start, end)
	}
}

// Lines renders the chart, one string per terminal row, without colors
func (c *TerminalChart) Lines() []string {
	if c.destroyed {
		return nil
	}
	if len(c.columns) == 0 {
		return []string{"  No simulations in range"}
	}

	labelWidth := len(strconv.Itoa(c.peak))
	lo, hi, selecting := c.Selection()

	lines := make([]string, 0, c.height+4)
	for row := c.height - 1; row >= 0; row-- {
		var b strings.Builder

		switch row {
		case c.height - 1:
			b.WriteString(util.PadLeft(strconv.Itoa(c.peak), labelWidth))
		case 0:
			b.WriteString(util.PadLeft("0", labelWidth))
		default:
			b.WriteString(strings.Repeat(" ", labelWidth))
		}
		b.WriteString(" │")

		for _, col := range c.columns {
			b.WriteString(c.cell(col.count, row))
		}
		lines = append(lines, b.String())
	}

	// Axis
	lines = append(lines, strings.Repeat(" ", labelWidth)+" └"+strings.Repeat("─", len(c.columns)))

	// Selection marker
	var marker strings.Builder
	marker.WriteString(strings.Repeat(" ", labelWidth+2))
	for i := range c.columns {
		switch {
		case i == c.cursor:
			marker.WriteString("▲")
		case selecting && i >= lo && i <= hi:
			marker.WriteString("═")
		default:
			marker.WriteString(" ")
		}
	}
	lines = append(lines, marker.String())

	// Time labels at both ends
	first := util.FormatHour(c.series[0].Start)
	last := util.FormatHour(c.series[len(c.series)-1].Start)
	axisWidth := len(c.columns)
	labels := first
	if gap := axisWidth - util.GetDisplayWidth(first) - util.GetDisplayWidth(last); gap > 0 {
		labels = first + strings.Repeat(" ", gap) + last
	}
	lines = append(lines, strings.Repeat(" ", labelWidth+2)+labels)

	lines = append(lines, c.cursorInfo())
	return lines
}

// cell returns the block for a bar of count at the given row
func (c *TerminalChart) cell(count, row int) string {
	if c.peak == 0 || count == 0 {
		return " "
	}
	eighths := count * c.height * 8 / c.peak
	if eighths == 0 {
		eighths = 1
	}
	filled := eighths - row*8
	switch {
	case filled >= 8:
		return barBlocks[8]
	case filled <= 0:
		return " "
	default:
		return barBlocks[filled]
	}
}

func (c *TerminalChart) cursorInfo() string {
	col := c.columns[c.cursor]
	start := c.series[col.first].Start
	end := c.series[col.last].End()
	info := fmt.Sprintf("  %s → %s  %s simulations",
		util.FormatHour(start), util.GetTimeProvider().Format(end, "15:04"), util.FormatCount(col.count))

	if lo, hi, ok := c.Selection(); ok {
		total := 0
		for i := lo; i <= hi; i++ {
			total += c.columns[i].count
		}
		info += fmt.Sprintf("  [selected %d bars, %s]", hi-lo+1, util.FormatCount(total))
	}
	return info
}
