package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// Parser reads simulation snapshot files. A .json file holds an array of
// simulations, a .jsonl file one simulation per line.
type Parser struct {
	concurrency int
	mu          sync.Mutex
	cache       map[string]cachedFile
}

// cachedFile is reused as long as the file's size and modtime are unchanged
type cachedFile struct {
	size    int64
	modTime time.Time
	records []model.Simulation
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File    string
	Records []model.Simulation
	Error   error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Parser{
		concurrency: concurrency,
		cache:       make(map[string]cachedFile),
	}
}

// ParseFile parses the snapshot file at path.
func (p *Parser) ParseFile(path string) ([]model.Simulation, error) {
	info, err := os.Stat(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to stat file: %s - %v", path, err))
		return nil, err
	}

	p.mu.Lock()
	if cached, ok := p.cache[path]; ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
		p.mu.Unlock()
		return cached.records, nil
	}
	p.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	var records []model.Simulation
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		records, err = parseLines(path)
	} else {
		records, err = parseArray(path)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[path] = cachedFile{size: info.Size(), modTime: info.ModTime(), records: records}
	p.mu.Unlock()

	return records, nil
}

// Forget drops the cached records of a removed file
func (p *Parser) Forget(path string) {
	p.mu.Lock()
	delete(p.cache, path)
	p.mu.Unlock()
}

func parseLines(path string) ([]model.Simulation, error) {
	file, err := os.Open(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", path, err))
		return nil, err
	}
	defer file.Close()

	var records []model.Simulation
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var sim model.Simulation
		if err := sonic.Unmarshal(line, &sim); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %s:%d - %v", path, lineCount, err))
			continue
		}
		records = append(records, sim)
	}

	if err := scanner.Err(); err != nil {
		util.LogDebug(fmt.Sprintf("Error scanning file: %s - %v", path, err))
		return nil, err
	}
	return records, nil
}

func parseArray(path string) ([]model.Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []model.Simulation
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// ParseFiles parses multiple files concurrently and returns a channel of ParseResult.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			records, err := p.ParseFile(f)
			if err != nil {
				util.LogDebug(fmt.Sprintf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err))
			}

			results <- ParseResult{
				File:    f,
				Records: records,
				Error:   err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}
