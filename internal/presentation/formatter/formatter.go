package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
)

// Formatter writes a bucket series in one output format
type Formatter interface {
	Format(w io.Writer, series []aggregator.Bucket) error
}

// Formats lists the accepted --output values
var Formats = []string{"table", "json", "csv"}

// New returns the formatter for an --output value
func New(format string) (Formatter, error) {
	switch format {
	case "", "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (expected one of %v)", format, Formats)
	}
}
