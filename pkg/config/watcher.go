package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"helix.run/core/pkg/helixerr"
)

// Watcher holds the live RuntimeConfig behind an atomic pointer so readers
// never block on a reload, and re-decodes the backing file on every
// fsnotify write event.
type Watcher struct {
	path    string
	current atomic.Pointer[RuntimeConfig]
	log     hclog.Logger
}

// NewWatcher loads path once synchronously, then returns a Watcher ready
// to have its Run method started in the background.
func NewWatcher(path string, log hclog.Logger) (*Watcher, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	w := &Watcher{path: path, log: log.Named("config.watcher")}
	cfg, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the live RuntimeConfig. Safe for concurrent use with Run.
func (w *Watcher) Current() *RuntimeConfig {
	return w.current.Load()
}

func (w *Watcher) load() (*RuntimeConfig, error) {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return nil, helixerr.NewConfigError("config.Watcher: reading "+w.path, err)
	}
	return Decode(raw)
}

// Run watches the config file's directory for writes and hot-swaps Current
// on every valid reload, validating before it swaps: a decode failure is logged and the previous RuntimeConfig is left
// in place untouched (rollback is implicit since the atomic pointer is
// never written on a failed decode). Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return helixerr.NewInternalError("config.Watcher: creating fsnotify watcher", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return helixerr.NewInternalError("config.Watcher: watching "+dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := w.load()
			if err != nil {
				w.log.Error("config reload failed, keeping previous configuration", "error", err)
				continue
			}
			w.current.Store(cfg)
			w.log.Info("configuration reloaded")
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("config watcher error", "error", err)
		}
	}
}
