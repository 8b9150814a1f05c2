package chart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/cache"
	"github.com/penwyp/go-sim-monitor/internal/data/client"
	"github.com/penwyp/go-sim-monitor/internal/data/parser"
	"github.com/penwyp/go-sim-monitor/internal/data/scanner"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// DataLoader loads simulations either from the API, backed by the snapshot
// cache, or from a directory of snapshot files.
type DataLoader struct {
	config    *ChartConfig
	fileCache cache.Cache
	client    *client.Client
	scanner   *scanner.FileScanner
	parser    *parser.Parser
}

// NewDataLoader creates a new DataLoader instance. Paths in config must
// already be expanded.
func NewDataLoader(config *ChartConfig) (*DataLoader, error) {
	dl := &DataLoader{config: config}

	if config.UseDirectory() {
		dl.scanner = scanner.NewFileScanner(config.DataDir)
		dl.parser = parser.NewParser(config.Concurrency)
		return dl, nil
	}

	fileCache, err := cache.NewFileCache(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}
	dl.fileCache = fileCache

	apiClient, err := client.New(config.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: config.APITimeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	dl.client = apiClient

	return dl, nil
}

// Source describes where records come from, for the status line
func (dl *DataLoader) Source() string {
	if dl.config.UseDirectory() {
		return dl.config.DataDir
	}
	return dl.config.APIURL
}

// Preload returns records available without a network round trip: the cached
// snapshot in API mode, the parsed files in directory mode.
func (dl *DataLoader) Preload() ([]model.Simulation, error) {
	if dl.config.UseDirectory() {
		return dl.loadDirectory()
	}

	snap, err := dl.fileCache.Load()
	if err != nil {
		if errors.Is(err, cache.ErrNoSnapshot) {
			return nil, nil
		}
		util.LogWarn(fmt.Sprintf("Cache preload warning: %v", err))
		return nil, nil
	}
	if snap.Source != dl.config.APIURL {
		util.LogDebug(fmt.Sprintf("Ignoring cached snapshot from %s", snap.Source))
		return nil, nil
	}

	util.LogInfo(fmt.Sprintf("Preloaded %d cached simulations", len(snap.Simulations)))
	return dl.applyFilters(snap.Simulations), nil
}

// Load fetches the current records
func (dl *DataLoader) Load(ctx context.Context) ([]model.Simulation, error) {
	if dl.config.UseDirectory() {
		return dl.loadDirectory()
	}

	ctx, cancel := context.WithTimeout(ctx, dl.fetchTimeout())
	defer cancel()

	start := time.Now()
	records, err := dl.client.ListAll(ctx, client.ListOptions{
		ExperimentID: dl.config.ExperimentID,
		Status:       dl.config.Status,
		Tags:         dl.config.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch simulations: %w", err)
	}
	util.LogInfo(fmt.Sprintf("Fetched %d simulations in %v", len(records), time.Since(start)))

	if err := dl.fileCache.Save(dl.config.APIURL, records); err != nil {
		util.LogWarn(fmt.Sprintf("Failed to cache simulations: %v", err))
	}

	return dl.applyFilters(records), nil
}

// Forget drops a removed snapshot file from the parser cache
func (dl *DataLoader) Forget(path string) {
	if dl.parser != nil {
		dl.parser.Forget(path)
	}
}

// ClearCache removes the persisted snapshot
func (dl *DataLoader) ClearCache() error {
	if dl.fileCache == nil {
		return nil
	}
	return dl.fileCache.Clear()
}

// fetchTimeout bounds a full paginated fetch, not a single request
func (dl *DataLoader) fetchTimeout() time.Duration {
	return 6 * dl.config.APITimeout
}

func (dl *DataLoader) loadDirectory() ([]model.Simulation, error) {
	files, err := dl.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dl.config.DataDir, err)
	}
	util.LogInfo(fmt.Sprintf("Found %d snapshot files to process", len(files)))

	// Several snapshots may carry the same run; the last file wins
	byID := make(map[string]int)
	var records []model.Simulation
	results := make(map[string][]model.Simulation, len(files))
	for result := range dl.parser.ParseFiles(files) {
		if result.Error != nil {
			util.LogWarn(fmt.Sprintf("Failed to parse %s: %v", result.File, result.Error))
			continue
		}
		results[result.File] = result.Records
	}

	// Merge in scan order so the result does not depend on parse timing
	for _, file := range files {
		for _, rec := range results[file] {
			if rec.UUID != "" {
				if idx, ok := byID[rec.UUID]; ok {
					records[idx] = rec
					continue
				}
				byID[rec.UUID] = len(records)
			}
			records = append(records, rec)
		}
	}

	return dl.applyFilters(records), nil
}

func (dl *DataLoader) applyFilters(records []model.Simulation) []model.Simulation {
	if dl.config.Status == "" && dl.config.ExperimentID == "" && len(dl.config.Tags) == 0 {
		return records
	}
	out := make([]model.Simulation, 0, len(records))
	for _, rec := range records {
		if dl.config.Status != "" && rec.Status != dl.config.Status {
			continue
		}
		if dl.config.ExperimentID != "" && rec.ExperimentID() != dl.config.ExperimentID {
			continue
		}
		if !hasTags(rec, dl.config.Tags) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func hasTags(rec model.Simulation, tags []client.Tag) bool {
	for _, tag := range tags {
		if !rec.HasTag(tag.Name, tag.Value) {
			return false
		}
	}
	return true
}
