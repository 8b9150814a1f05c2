package formatter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() []aggregator.Bucket {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return []aggregator.Bucket{
		{Start: base, Count: 2},
		{Start: base.Add(time.Hour), Count: 0},
		{Start: base.Add(2 * time.Hour), Count: 1234},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		want    interface{}
		wantErr bool
	}{
		{format: "", want: &TableFormatter{}},
		{format: "table", want: &TableFormatter{}},
		{format: "json", want: &JSONFormatter{}},
		{format: "csv", want: &CSVFormatter{}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := New(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, sampleSeries()))

	var decoded []map[string]interface{}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "2024-01-01T10:00:00Z", decoded[0]["date"])
	assert.Equal(t, float64(2), decoded[0]["count"])
	assert.Equal(t, float64(0), decoded[1]["count"])
	assert.Contains(t, buf.String(), "\n  ", "output is indented")
}

func TestJSONFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestCSVFormatter(t *testing.T) {
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter().Format(&buf, sampleSeries()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"date", "hour", "count"}, records[0])
	assert.Equal(t, []string{"2024-01-01T10:00:00Z", "2024-01-01 10:00", "2"}, records[1])
	assert.Equal(t, "0", records[2][2])
	assert.Equal(t, "1234", records[3][2])
}

func TestTableFormatter(t *testing.T) {
	require.NoError(t, util.InitializeTimeProvider("UTC"))

	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, sampleSeries()))
	out := buf.String()

	for _, want := range []string{"Hour", "Count", "2024-01-01 11:00", "1,234", "Total", "1,236", "┌", "┘"} {
		assert.Contains(t, out, want)
	}

	// Every line has the same display width
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for _, line := range lines[1:] {
		assert.Equal(t, util.GetDisplayWidth(lines[0]), util.GetDisplayWidth(line), line)
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, nil))
	assert.Equal(t, "No simulations found.\n", buf.String())
}

func TestBarAndFormatNumber(t *testing.T) {
	assert.Equal(t, "", bar(0, 10))
	assert.Equal(t, "█", bar(1, 1000))
	assert.Equal(t, strings.Repeat("█", maxBarWidth), bar(10, 10))

	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
