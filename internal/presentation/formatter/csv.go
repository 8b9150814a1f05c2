package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes one row per bucket: the UTC start, the local hour and the count
func (f *CSVFormatter) Format(w io.Writer, series []aggregator.Bucket) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "hour", "count"}); err != nil {
		return err
	}

	for _, b := range series {
		record := []string{
			b.Start.UTC().Format(time.RFC3339),
			util.FormatHour(b.Start),
			strconv.Itoa(b.Count),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
