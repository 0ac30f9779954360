package lsp

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/caret/tree"
)

// Watcher polls the served directory. When an entry appears, disappears
// or changes it purges the cache and calls onChange; otherwise it only
// sweeps expired cache entries.
type Watcher struct {
	root         string
	cache        *tree.Cache
	onChange     func()
	stopCh       chan struct{}
	stopOnce     sync.Once
	pollInterval time.Duration
	modTimes     map[string]time.Time
	log          commonlog.Logger
}

func NewWatcher(root string, cache *tree.Cache, onChange func()) *Watcher {
	if onChange == nil {
		onChange = func() {}
	}
	return &Watcher{
		root:         root,
		cache:        cache,
		onChange:     onChange,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
		log:          commonlog.GetLogger("caret.watcher"),
	}
}

func (w *Watcher) Start() {
	go w.run()
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.scan() {
				w.log.Info("directory changed, purging cache")
				w.cache.Purge()
				w.onChange()
			} else if n := w.cache.Sweep(); n > 0 {
				w.log.Debugf("swept %d expired cache entries", n)
			}
		}
	}
}

// scan records the modification time of every entry under root and
// reports whether anything changed since the previous scan.
func (w *Watcher) scan() bool {
	changed := false
	current := make(map[string]bool)

	filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		current[path] = true
		lastMod, known := w.modTimes[path]
		if !known || !info.ModTime().Equal(lastMod) {
			w.modTimes[path] = info.ModTime()
			changed = true
		}
		return nil
	})

	for path := range w.modTimes {
		if !current[path] {
			delete(w.modTimes, path)
			changed = true
		}
	}
	return changed
}
