package cache

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-coach/logging"
)

// ModTimeFunc reports the modification time of a file
type ModTimeFunc func(path string) (time.Time, error)

// LoadFunc parses the contents of a file into a snapshot
type LoadFunc[T any] func(path string) (T, error)

// StatModTime is the default ModTimeFunc, backed by os.Stat
func StatModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

type invalidator interface {
	Invalidate()
}

// Manager owns the file-backed caches of one process. It is shared by the
// rule engine and the recommender so both reload through the same clock.
type Manager struct {
	mu      sync.Mutex
	modTime ModTimeFunc
	caches  []invalidator
	logger  logging.Logger
}

// NewManager creates a cache manager. A nil modTime uses StatModTime.
func NewManager(modTime ModTimeFunc) *Manager {
	if modTime == nil {
		modTime = StatModTime
	}
	return &Manager{
		modTime: modTime,
		logger: logging.WithFields(logging.Fields{
			"component": "cache_manager",
		}),
	}
}

// InvalidateAll drops every snapshot so the next Get re-reads from disk
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	caches := append([]invalidator(nil), m.caches...)
	m.mu.Unlock()

	for _, c := range caches {
		c.Invalidate()
	}
}

func (m *Manager) register(c invalidator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// FileCache holds at most one parsed snapshot of a file together with the
// modification time it was read at
type FileCache[T any] struct {
	mu      sync.Mutex
	path    string
	load    LoadFunc[T]
	modTime ModTimeFunc
	logger  logging.Logger

	loadedAt time.Time
	data     T
	loaded   bool
}

// NewFileCache registers a cache for path with the manager
func NewFileCache[T any](m *Manager, path string, load LoadFunc[T]) *FileCache[T] {
	c := &FileCache[T]{
		path:    path,
		load:    load,
		modTime: m.modTime,
		logger: m.logger.WithFields(logging.Fields{
			"path": path,
		}),
	}
	m.register(c)
	return c
}

// Path returns the backing file path
func (c *FileCache[T]) Path() string {
	return c.path
}

// Get returns the current snapshot, re-reading the file only when its
// modification time differs from the cached one. When the file cannot be
// stat'ed, read or parsed the cache is cleared and the error returned with
// the zero snapshot.
func (c *FileCache[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T

	mtime, err := c.modTime(c.path)
	if err != nil {
		c.clear()
		return zero, fmt.Errorf("failed to stat %s: %w", c.path, err)
	}

	if c.loaded && mtime.Equal(c.loadedAt) {
		return c.data, nil
	}

	data, err := c.load(c.path)
	if err != nil {
		c.clear()
		return zero, fmt.Errorf("failed to load %s: %w", c.path, err)
	}

	c.logger.Debug("Reloaded cached file", logging.Fields{
		"mod_time": mtime,
	})

	c.data = data
	c.loadedAt = mtime
	c.loaded = true
	return data, nil
}

// Invalidate drops the snapshot
func (c *FileCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

func (c *FileCache[T]) clear() {
	var zero T
	c.data = zero
	c.loadedAt = time.Time{}
	c.loaded = false
}
