package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

const maxBarWidth = 40

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{"Hour", "Count", "Distribution"},
	}
}

func (f *TableFormatter) Format(w io.Writer, series []aggregator.Bucket) error {
	if len(series) == 0 {
		_, err := fmt.Fprintln(w, "No simulations found.")
		return err
	}

	peak := aggregator.Peak(series)
	total := aggregator.Total(series)

	rows := make([][]string, 0, len(series)+1)
	for _, b := range series {
		rows = append(rows, []string{
			util.FormatHour(b.Start),
			formatNumber(b.Count),
			bar(b.Count, peak),
		})
	}
	footer := []string{"Total", formatNumber(total), ""}

	widths := f.calculateColumnWidths(append(rows, footer))

	var sb strings.Builder
	f.writeBorder(&sb, widths, "top")
	f.writeRow(&sb, f.headers, widths)
	f.writeBorder(&sb, widths, "middle")
	for _, row := range rows {
		f.writeRow(&sb, row, widths)
	}
	f.writeBorder(&sb, widths, "middle")
	f.writeRow(&sb, footer, widths)
	f.writeBorder(&sb, widths, "bottom")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TableFormatter) calculateColumnWidths(rows [][]string) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := util.GetDisplayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func (f *TableFormatter) writeBorder(sb *strings.Builder, widths []int, borderType string) {
	var left, middle, right string

	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat("─", width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}

// writeRow left-aligns text columns and right-aligns the count
func (f *TableFormatter) writeRow(sb *strings.Builder, values []string, widths []int) {
	sb.WriteString("│")
	for i, value := range values {
		sb.WriteString(" ")
		if i == 1 {
			sb.WriteString(util.PadLeft(value, widths[i]))
		} else {
			sb.WriteString(util.PadRight(value, widths[i]))
		}
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
}

func bar(count, peak int) string {
	if peak == 0 || count == 0 {
		return ""
	}
	n := count * maxBarWidth / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func formatNumber(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}

	return string(result)
}
