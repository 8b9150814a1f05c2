package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

const snapshotFile = "simulations.json"

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no cached snapshot")

// Snapshot is the persisted result of the last successful fetch
type Snapshot struct {
	Source      string             `json:"source"`
	SavedAt     time.Time          `json:"saved_at"`
	Simulations []model.Simulation `json:"simulations"`
}

type Cache interface {
	Load() (*Snapshot, error)
	Save(source string, records []model.Simulation) error
	Clear() error
}

// FileCache keeps one snapshot file under baseDir and mirrors it in memory
type FileCache struct {
	baseDir string
	mu      sync.RWMutex
	memory  *Snapshot
}

func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{baseDir: baseDir}, nil
}

// Path returns the snapshot file location
func (c *FileCache) Path() string {
	return filepath.Join(c.baseDir, snapshotFile)
}

// Load returns the cached snapshot, reading the file on first access
func (c *FileCache) Load() (*Snapshot, error) {
	c.mu.RLock()
	if c.memory != nil {
		snap := c.memory
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(c.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		util.LogDebug(fmt.Sprintf("Cache file %s is corrupt: %v", c.Path(), err))
		return nil, fmt.Errorf("decode cache: %w", err)
	}

	c.mu.Lock()
	c.memory = &snap
	c.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Loaded %d cached simulations saved at %s", len(snap.Simulations), snap.SavedAt.Format(time.RFC3339)))
	return &snap, nil
}

// Save replaces the snapshot. The file is written to a temp file and renamed
// so a crash never leaves a half-written cache.
func (c *FileCache) Save(source string, records []model.Simulation) error {
	snap := &Snapshot{
		Source:      source,
		SavedAt:     time.Now().UTC(),
		Simulations: records,
	}

	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.baseDir, snapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmpName, c.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache: %w", err)
	}

	c.memory = snap
	return nil
}

// Clear removes the snapshot from memory and disk
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memory = nil
	if err := os.Remove(c.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
