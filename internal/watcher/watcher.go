// Package watcher reloads configuration when its file changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when NewConfigWatcher is given a non-positive delay.
const DefaultDebounce = 250 * time.Millisecond

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type EventType
	Path string
}

// ChangeHandler is called once per debounced burst of changes.
type ChangeHandler func(event ChangeEvent) error

// ConfigWatcher watches a single configuration file. Editors often replace
// files instead of writing them, so the containing directory is watched and
// events are filtered by name.
type ConfigWatcher struct {
	watcher   *fsnotify.Watcher
	path      string
	debouncer *debouncer
	handlers  []ChangeHandler
	mutex     sync.RWMutex
	logger    logging.Logger
	stopOnce  sync.Once
}

// NewConfigWatcher creates a watcher for the file at path.
func NewConfigWatcher(path string, delay time.Duration, logger logging.Logger) (*ConfigWatcher, error) {
	if path == "" {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "no config file to watch")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "resolve config path")
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapInternal(err, errors.ErrCodeInternalError, "create file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid, "watch config directory").
			WithContext("path", abs)
	}

	return &ConfigWatcher{
		watcher:   fsw,
		path:      abs,
		debouncer: newDebouncer(delay),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// Path returns the absolute path being watched.
func (cw *ConfigWatcher) Path() string {
	return cw.path
}

// AddHandler adds a change handler
func (cw *ConfigWatcher) AddHandler(handler ChangeHandler) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()
	cw.handlers = append(cw.handlers, handler)
}

// Start runs the watcher until ctx is cancelled or Stop is called.
func (cw *ConfigWatcher) Start(ctx context.Context) {
	go cw.processEvents(ctx)
	go cw.watchLoop(ctx)
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		cw.debouncer.stop()
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFsnotifyEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn(ctx, err, "Config watcher error")
		}
	}
}

func (cw *ConfigWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != cw.path {
		return
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// chmod
		return
	}

	cw.debouncer.add(ChangeEvent{Type: eventType, Path: cw.path})
}

func (cw *ConfigWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-cw.debouncer.output:
			cw.mutex.RLock()
			handlers := cw.handlers
			cw.mutex.RUnlock()

			cw.logger.Info(ctx, "Config file changed", "path", event.Path, "event", event.Type.String())
			for _, handler := range handlers {
				if err := handler(event); err != nil {
					cw.logger.Error(ctx, err, "Config change handler failed", "path", event.Path)
				}
			}
		}
	}
}

// debouncer collapses bursts of events into the last one seen.
type debouncer struct {
	delay   time.Duration
	output  chan ChangeEvent
	timer   *time.Timer
	pending *ChangeEvent
	mutex   sync.Mutex
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		output: make(chan ChangeEvent, 1),
	}
}

func (d *debouncer) add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = &event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.pending == nil {
		return
	}

	select {
	case d.output <- *d.pending:
	default:
		// A flush is already queued; it covers this change too.
	}
	d.pending = nil
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
}
