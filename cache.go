package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PhraseBookCache caches the loaded phrase book with file watching. With no
// path configured it always serves the built-in book.
type PhraseBookCache struct {
	sync.RWMutex
	book    *PhraseBook
	modTime time.Time
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// PhraseBookInfo describes the cached book for the admin endpoint.
type PhraseBookInfo struct {
	Source     string    `json:"source"`
	Cached     bool      `json:"cached"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	ModTime    time.Time `json:"mod_time,omitempty"`
	Categories int       `json:"question_categories"`
	Watching   bool      `json:"watching"`
}

func NewPhraseBookCache(path string, logger *zap.Logger) (*PhraseBookCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pc := &PhraseBookCache{path: path, logger: logger}
	if path == "" {
		return pc, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors replace files on save; watch the directory, not the file
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch phrase book directory: %w", err)
	}
	pc.watcher = watcher

	logger.Info("file watcher initialized", zap.String("dir", dir), zap.String("file", filepath.Base(path)))
	return pc, nil
}

func (pc *PhraseBookCache) Close() {
	if pc.watcher != nil {
		pc.watcher.Close()
	}
}

// WatchFiles marks the cached book stale whenever the phrase file is written or
// created. It returns when ctx is done or the watcher is closed.
func (pc *PhraseBookCache) WatchFiles(ctx context.Context) {
	if pc.watcher == nil {
		return
	}
	pc.logger.Info("file watcher started")
	target := filepath.Clean(pc.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-pc.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(event.Name) != target {
				continue
			}

			// Small delay to ensure file write is complete
			time.Sleep(100 * time.Millisecond)

			pc.invalidate()
			pc.logger.Info("phrase book changed, will reload on next request", zap.String("file", event.Name))

		case err, ok := <-pc.watcher.Errors:
			if !ok {
				return
			}
			pc.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

// Reset drops the cached book; the next Get reloads it.
func (pc *PhraseBookCache) Reset() {
	pc.Lock()
	pc.book = nil
	pc.modTime = time.Time{}
	pc.Unlock()
}

// invalidate forces a reload on the next Get but keeps the current book as
// the fallback.
func (pc *PhraseBookCache) invalidate() {
	pc.Lock()
	pc.modTime = time.Time{}
	pc.Unlock()
}

func (pc *PhraseBookCache) isFileModified() (bool, time.Time, error) {
	info, err := os.Stat(pc.path)
	if err != nil {
		return false, time.Time{}, err
	}

	pc.RLock()
	last := pc.modTime
	pc.RUnlock()

	return info.ModTime().After(last), info.ModTime(), nil
}

// Get returns the current book, loading it when the cache is empty or the
// file changed since the last load. A file that fails to load keeps the
// previous book in service; with none cached the built-in book is used.
func (pc *PhraseBookCache) Get() (*PhraseBook, error) {
	if pc.path == "" {
		return DefaultPhraseBook(), nil
	}

	modified, modTime, statErr := pc.isFileModified()

	pc.RLock()
	book := pc.book
	pc.RUnlock()
	if book != nil && (statErr != nil || !modified) {
		return book, nil
	}

	pc.Lock()
	defer pc.Unlock()

	fallback := pc.book
	if fallback == nil {
		fallback = DefaultPhraseBook()
	}

	// Double-check after acquiring write lock
	if pc.book != nil && statErr == nil && !modTime.After(pc.modTime) {
		return pc.book, nil
	}
	if statErr != nil {
		return fallback, fmt.Errorf("failed to load phrase book: %w", statErr)
	}

	data, err := os.ReadFile(pc.path)
	if err != nil {
		return fallback, fmt.Errorf("failed to load phrase book: %w", err)
	}
	loaded, err := ParsePhraseBook(data, pc.path, pc.logger)
	if err != nil {
		pc.logger.Warn("phrase book rejected, previous book kept", zap.String("file", pc.path), zap.Error(err))
		return fallback, err
	}

	pc.book = loaded
	pc.modTime = modTime
	pc.logger.Info("loaded phrase book", zap.String("file", pc.path))
	return loaded, nil
}

func (pc *PhraseBookCache) Info() PhraseBookInfo {
	pc.RLock()
	defer pc.RUnlock()

	info := PhraseBookInfo{Source: "builtin", Watching: pc.watcher != nil}
	if pc.path != "" {
		info.Source = pc.path
	}
	book := pc.book
	if pc.path == "" {
		book = DefaultPhraseBook()
	}
	if book != nil {
		info.Cached = true
		info.LoadedAt = book.LoadedAt()
		info.Categories = len(book.Categories())
	}
	info.ModTime = pc.modTime
	return info
}
