package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/util"
)

// SnapshotExtensions are the file types holding simulation snapshots
var SnapshotExtensions = []string{".jsonl", ".json"}

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir    string
	extensions []string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir:    baseDir,
		extensions: SnapshotExtensions,
	}
}

// IsSnapshotFile reports whether path has a snapshot extension
func IsSnapshotFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SnapshotExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan walks the directory and returns all snapshot file paths, sorted
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebug(fmt.Sprintf("Start scanning directory: %s", s.baseDir))

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if IsSnapshotFile(path) {
			files = append(files, path)
		}

		return nil
	})

	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, %d files, found %d snapshot files",
		time.Since(start), dirCount, totalCount, len(files)))

	return files, err
}
