package watcher

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/scanner"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// FileWatcher reports changes to snapshot files below a set of directories
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	paths     []string
	events    chan model.FileEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		paths:   paths,
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	// Recursively add directories
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			return fw.watcher.Add(p)
		}

		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories are watched as they appear
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addPath(event.Name); err != nil {
						util.LogWarn("Failed to watch new directory " + event.Name + ": " + err.Error())
					}
					continue
				}
			}

			if !scanner.IsSnapshotFile(event.Name) {
				continue
			}

			select {
			case fw.events <- model.FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			default:
				util.LogDebug("File event dropped, queue full: " + event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
