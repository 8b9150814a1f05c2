package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewParser(t *testing.T) {
	parser := NewParser(4)

	assert.Equal(t, 4, parser.concurrency)
	assert.NotNil(t, parser.cache)
	assert.Equal(t, 1, NewParser(0).concurrency)
}

func TestParserParseFileJSONL(t *testing.T) {
	parser := NewParser(1)
	path := writeFile(t, t.TempDir(), "runs.jsonl", `{"uuid":"a","status":"done","created":"2024-01-01T10:15:00Z"}

invalid json line here
{"uuid":"b","status":"in_progress","created":1704103200}`)

	records, err := parser.ParseFile(path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].UUID)
	assert.Equal(t, "b", records[1].UUID)

	created, ok := records[1].CreatedTime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), created)
}

func TestParserParseFileJSONArray(t *testing.T) {
	parser := NewParser(1)
	path := writeFile(t, t.TempDir(), "runs.json", `[
  {"uuid":"a","parent_uuid":"exp","created":"2024-01-01T10:15:00Z"},
  {"uuid":"b","created":null}
]`)

	records, err := parser.ParseFile(path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "exp", records[0].ExperimentID())
	_, ok := records[1].CreatedTime()
	assert.False(t, ok)
}

func TestParserParseFileErrors(t *testing.T) {
	parser := NewParser(1)
	dir := t.TempDir()

	_, err := parser.ParseFile(filepath.Join(dir, "missing.jsonl"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.json", `{"not":"an array"`)
	_, err = parser.ParseFile(bad)
	assert.Error(t, err)

	empty := writeFile(t, dir, "empty.json", "  \n")
	records, err := parser.ParseFile(empty)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestParserCacheInvalidatedOnChange(t *testing.T) {
	parser := NewParser(1)
	dir := t.TempDir()
	path := writeFile(t, dir, "runs.jsonl", `{"uuid":"a","created":"2024-01-01T10:15:00Z"}`)

	records, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"uuid":"a","created":"2024-01-01T10:15:00Z"}
{"uuid":"b","created":"2024-01-01T11:15:00Z"}`), 0644))

	records, err = parser.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	parser.Forget(path)
	assert.Empty(t, parser.cache)
}

func TestParserParseFiles(t *testing.T) {
	parser := NewParser(2)
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "one.jsonl", `{"uuid":"a","created":"2024-01-01T10:15:00Z"}`),
		writeFile(t, dir, "two.json", `[{"uuid":"b","created":"2024-01-01T10:15:00Z"},{"uuid":"c","created":"2024-01-01T10:15:00Z"}]`),
		filepath.Join(dir, "missing.jsonl"),
	}

	total := 0
	failed := 0
	for result := range parser.ParseFiles(files) {
		if result.Error != nil {
			failed++
			continue
		}
		total += len(result.Records)
	}

	assert.Equal(t, 3, total)
	assert.Equal(t, 1, failed)
}
