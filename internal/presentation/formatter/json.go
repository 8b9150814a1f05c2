package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the series as an indented array of {"date", "count"} objects
func (f *JSONFormatter) Format(w io.Writer, series []aggregator.Bucket) error {
	if series == nil {
		series = []aggregator.Bucket{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(series, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
