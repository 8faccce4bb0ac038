package prefs

import (
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
)

// Watcher monitors the preference directory for writes made by another
// process and publishes prefs.reloaded so in-memory state can refresh.
type Watcher struct {
	watcher *fsnotify.Watcher
	bus     *event.Bus

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	started bool
}

// NewWatcher creates a watcher over the store's directory. The directory is
// created if it does not exist yet so the watch can be registered.
func NewWatcher(store *Store, bus *event.Bus) (*Watcher, error) {
	if err := os.MkdirAll(store.Dir(), 0755); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(store.Dir()); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{
		watcher: w,
		bus:     bus,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Writes land via rename from a temp file; lock and temp
			// files are noise.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			logging.Debug().Str("path", ev.Name).Msg("preference file changed on disk")
			w.bus.Publish(event.Event{
				Type: event.PrefsReloaded,
				Data: event.PrefsReloadedData{Path: ev.Name},
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("preference watcher error")
		}
	}
}

// Stop stops the watcher and waits for the background goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}
