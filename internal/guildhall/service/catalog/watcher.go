package catalog

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mverel/guildmaster/pkg/logger"
)

// debounceDelay is how long the watcher waits after the last event before
// reloading, so an editor's save burst triggers one rescan.
const debounceDelay = 500 * time.Millisecond

// watcher reloads the catalog when definition files change. It watches the
// catalog root and every namespace directory, picking up namespaces created
// after startup.
type watcher struct {
	fw     *fsnotify.Watcher
	reload func()

	mu       sync.Mutex
	debounce *time.Timer
	closeCh  chan struct{}
	closed   bool
}

func newWatcher(dir string, reload func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fw.Close()
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = fw.Add(dir + string(os.PathSeparator) + e.Name())
		}
	}

	w := &watcher{
		fw:      fw,
		reload:  reload,
		closeCh: make(chan struct{}),
	}
	go w.loop()

	logger.DebugX(moduleName, "catalog watcher started for %s", dir)
	return w, nil
}

func (w *watcher) loop() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.fw.Add(event.Name)
					w.trigger()
					continue
				}
			}
			if strings.HasSuffix(event.Name, ".md") {
				w.trigger()
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

// trigger arms or re-arms the debounce timer.
func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.debounce == nil {
		w.debounce = time.AfterFunc(debounceDelay, w.reload)
		return
	}
	w.debounce.Reset(debounceDelay)
}

func (w *watcher) stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	close(w.closeCh)
	_ = w.fw.Close()
}
