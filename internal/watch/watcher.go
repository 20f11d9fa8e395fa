// Package watch runs the inbox mode: a directory watcher that picks up
// dropped run files and hands each one to a dispatch handler.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileOp represents the type of inbox file operation.
type FileOp int

const (
	// FileCreated indicates a new file arrived in the inbox
	FileCreated FileOp = iota
	// FileWritten indicates an inbox file was written to
	FileWritten
	// FileRemoved indicates an inbox file was removed
	FileRemoved
)

// String returns a human-readable representation of the file operation.
func (op FileOp) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileWritten:
		return "written"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileEvent represents a file system event for a watched inbox file.
type FileEvent struct {
	Path      string
	Op        FileOp
	Timestamp time.Time
}

// InboxWatcher watches an inbox directory for dropped run files. Rapid
// writes to the same file are debounced so a drop that takes several write
// calls surfaces as a single event.
type InboxWatcher struct {
	watcher *fsnotify.Watcher
	events  chan FileEvent
	errors  chan error
	done    chan struct{}
	rootDir string
	pattern string

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// DefaultDebounceDelay is the default delay for coalescing rapid writes.
const DefaultDebounceDelay = 100 * time.Millisecond

// NewInboxWatcher creates a watcher for the given inbox directory and
// filename pattern (e.g. "*.json"). The directory is created if missing.
func NewInboxWatcher(rootDir, pattern string) (*InboxWatcher, error) {
	if strings.HasPrefix(rootDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootDir = filepath.Join(home, rootDir[1:])
	}

	rootDir = filepath.Clean(rootDir)
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	iw := &InboxWatcher{
		watcher:       watcher,
		events:        make(chan FileEvent, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		rootDir:       rootDir,
		pattern:       pattern,
		debounceDelay: DefaultDebounceDelay,
		debounceMap:   make(map[string]*time.Timer),
	}

	if err := iw.watcher.Add(rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	go iw.processEvents()

	return iw, nil
}

// processEvents converts fsnotify events to FileEvents.
func (iw *InboxWatcher) processEvents() {
	for {
		select {
		case <-iw.done:
			return
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			iw.handleEvent(event)
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case iw.errors <- err:
			default:
				// Error channel full, drop the error
			}
		}
	}
}

// handleEvent processes a single fsnotify event.
func (iw *InboxWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !iw.matchesPattern(path) {
		return
	}

	var op FileOp
	switch {
	case event.Has(fsnotify.Create):
		op = FileCreated
	case event.Has(fsnotify.Write):
		op = FileWritten
	case event.Has(fsnotify.Remove):
		op = FileRemoved
	case event.Has(fsnotify.Rename):
		// Treat rename as remove (file moved away)
		op = FileRemoved
	default:
		// Ignore chmod events
		return
	}

	// A drop usually arrives as create followed by one or more writes.
	// Debounce both so the handler sees the file once, fully written.
	if op == FileCreated || op == FileWritten {
		iw.debounce(path, op)
	} else {
		iw.sendEvent(path, op)
	}
}

// matchesPattern checks if the file path matches the configured pattern.
func (iw *InboxWatcher) matchesPattern(path string) bool {
	if iw.pattern == "" {
		return true
	}

	matched, err := filepath.Match(iw.pattern, filepath.Base(path))
	if err != nil {
		return false
	}
	return matched
}

// debounce coalesces rapid events for the same file.
func (iw *InboxWatcher) debounce(path string, op FileOp) {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if iw.closed {
		return
	}

	if timer, exists := iw.debounceMap[path]; exists {
		timer.Stop()
	}

	iw.debounceMap[path] = time.AfterFunc(iw.debounceDelay, func() {
		iw.mu.Lock()
		delete(iw.debounceMap, path)
		iw.mu.Unlock()

		iw.sendEvent(path, op)
	})
}

// sendEvent sends a FileEvent to the events channel.
func (iw *InboxWatcher) sendEvent(path string, op FileOp) {
	event := FileEvent{
		Path:      path,
		Op:        op,
		Timestamp: time.Now(),
	}

	select {
	case iw.events <- event:
	case <-iw.done:
	default:
		// Events channel full, drop the event
	}
}

// Events returns the channel for receiving inbox file events.
func (iw *InboxWatcher) Events() <-chan FileEvent {
	return iw.events
}

// Errors returns the channel for receiving errors.
func (iw *InboxWatcher) Errors() <-chan error {
	return iw.errors
}

// Close stops the watcher and releases resources.
func (iw *InboxWatcher) Close() error {
	iw.mu.Lock()
	if iw.closed {
		iw.mu.Unlock()
		return nil
	}
	iw.closed = true

	for _, timer := range iw.debounceMap {
		timer.Stop()
	}
	iw.debounceMap = nil
	iw.mu.Unlock()

	close(iw.done)

	return iw.watcher.Close()
}

// RootDir returns the inbox directory being watched.
func (iw *InboxWatcher) RootDir() string {
	return iw.rootDir
}

// Pattern returns the filename pattern being matched.
func (iw *InboxWatcher) Pattern() string {
	return iw.pattern
}

// SetDebounceDelay sets the debounce delay for coalescing rapid writes.
// This should only be called before the watcher starts receiving events.
func (iw *InboxWatcher) SetDebounceDelay(delay time.Duration) {
	iw.mu.Lock()
	defer iw.mu.Unlock()
	iw.debounceDelay = delay
}
