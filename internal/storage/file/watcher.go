package file

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor produces on save
const DefaultDebounce = 500 * time.Millisecond

// Watcher signals when the friends file is changed by something other than
// its Storage (a user editing the file by hand, another process).
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	storage   *Storage
	debounce  time.Duration
	logger    *slog.Logger
	onChange  chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	started   bool
}

// NewWatcher creates a watcher for the storage's file
func NewWatcher(s *Storage, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsw,
		storage:   s,
		debounce:  debounce,
		logger:    logger.With(slog.String("component", "friends-file-watcher")),
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

// Start begins watching the directory containing the friends file.
// The returned channel receives a signal after each external modification
// and is closed once the watcher stops.
func (w *Watcher) Start() (<-chan struct{}, error) {
	// Watch the directory: atomic saves replace the file, which would
	// silently drop a watch on the file itself
	dir := filepath.Dir(w.storage.Path())
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	w.started = true
	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and waits for its goroutine to exit
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.fsWatcher.Close()
	if w.started {
		<-w.stopped
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.stopped)
	defer close(w.onChange)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if !w.storage.modifiedExternally() {
				continue
			}
			w.logger.Info("friends file changed on disk", slog.String("path", w.storage.Path()))
			// Non-blocking send: one pending signal is enough
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("friends file watch error", slog.String("error", err.Error()))

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent keeps events that touch the friends file itself
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.storage.Path() {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
