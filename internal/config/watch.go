package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultWatchDebounce batches editor save bursts into one reload.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watcher reports changes to a single config file.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      zerolog.Logger

	pendingMu sync.Mutex
	pending   bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// that editors which replace the file on save are still seen.
func NewWatcher(path string, debounce time.Duration, log zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fsWatcher,
		log:      log.With().Str("component", "config").Str("path", abs).Logger(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run calls onChange once per quiet period after the file changes. It
// returns when ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("config watcher error")

		case <-ticker.C:
			if w.takePending() {
				w.log.Info().Msg("config file changed")
				onChange()
			}
		}
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()
}

func (w *Watcher) takePending() bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	p := w.pending
	w.pending = false
	return p
}

// Watch reloads the config whenever the file at path changes and hands the
// result to onChange. Reload errors are logged and the previous config kept.
// It blocks until ctx is done.
func Watch(ctx context.Context, path string, reload func() (*Config, error), onChange func(*Config), log zerolog.Logger) error {
	w, err := NewWatcher(path, DefaultWatchDebounce, log)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = w.Stop()
	}()

	w.Run(ctx, func() {
		cfg, err := reload()
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			w.log.Error().Err(err).Msg("config reload failed, keeping previous config")
			return
		}
		onChange(cfg)
	})
	return nil
}
