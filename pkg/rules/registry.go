package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Registry holds the active Store and swaps it wholesale when the rules
// document on disk changes. Readers always see either the old or the new
// Store, never a partially loaded one.
type Registry struct {
	mu       sync.RWMutex
	store    *Store
	path     string
	logger   *zap.Logger
	onChange func(*Store)
}

// NewRegistry loads the document at path, or the bundled document when path
// is empty.
func NewRegistry(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{path: path, logger: logger}

	var (
		store *Store
		err   error
	)
	if path == "" {
		store, err = Default()
	} else {
		store, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	r.store = store
	r.logLoaded("rules document loaded", store)
	return r, nil
}

// NewStaticRegistry wraps an already loaded Store. It cannot be reloaded.
func NewStaticRegistry(store *Store) *Registry {
	return &Registry{store: store, logger: zap.NewNop()}
}

// Store returns the active Store.
func (r *Registry) Store() *Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// Path returns the document path, empty for the bundled document.
func (r *Registry) Path() string {
	return r.path
}

// SetOnChange registers a callback invoked after every successful reload.
func (r *Registry) SetOnChange(fn func(*Store)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Reload re-reads the document. When the new document fails to load the
// previous Store stays active and the error is returned.
func (r *Registry) Reload() error {
	if r.path == "" {
		return fmt.Errorf("no rules document configured for reload")
	}

	store, err := LoadFile(r.path)
	if err != nil {
		r.logger.Warn("rules reload failed, keeping previous document",
			zap.String("path", r.path), zap.Error(err))
		return err
	}

	r.mu.Lock()
	r.store = store
	onChange := r.onChange
	r.mu.Unlock()

	r.logLoaded("rules document reloaded", store)
	if onChange != nil {
		onChange(store)
	}
	return nil
}

// Watch reloads the document whenever it is written, created or renamed
// into place, until ctx is cancelled. The containing directory is watched
// so that editors which replace the file atomically are picked up.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		return fmt.Errorf("no rules document configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	target := filepath.Clean(r.path)
	r.logger.Info("watching rules document", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.logger.Debug("rules document changed",
				zap.String("path", event.Name), zap.String("op", event.Op.String()))
			// Reload errors are logged and the old store is kept.
			_ = r.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("rules watcher error", zap.Error(err))
		}
	}
}

func (r *Registry) logLoaded(msg string, store *Store) {
	stats := store.Stats()
	r.logger.Info(msg,
		zap.String("path", r.path),
		zap.Int("versions", stats.Versions),
		zap.Int("subsections", stats.Subsections),
		zap.Int("subrules", stats.Subrules))
}
