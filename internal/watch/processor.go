package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DropFile is the payload dropped into the inbox. Each file names one
// completed run to score and dispatch.
type DropFile struct {
	RunID  string `json:"run_id"`
	Resend bool   `json:"resend,omitempty"`
}

// Handler performs the score-compose-dispatch pipeline for a run id.
type Handler func(ctx context.Context, runID string, resend bool) error

// Logger is the subset of logging used by the processor.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Processor consumes inbox events, parses drop files, and invokes the
// handler for each run. Processed files are renamed with a .done suffix
// (or .failed on error) so a restart does not redeliver them.
type Processor struct {
	watcher *InboxWatcher
	handler Handler
	log     Logger
}

// NewProcessor creates a Processor reading from the given watcher.
func NewProcessor(watcher *InboxWatcher, handler Handler, log Logger) *Processor {
	return &Processor{
		watcher: watcher,
		handler: handler,
		log:     log,
	}
}

// Run processes inbox events until the context is cancelled. Files already
// sitting in the inbox at startup are processed first.
func (p *Processor) Run(ctx context.Context) error {
	if err := p.drainExisting(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-p.watcher.Events():
			if !ok {
				return nil
			}
			if event.Op == FileRemoved {
				continue
			}
			p.processFile(ctx, event.Path)
		case err, ok := <-p.watcher.Errors():
			if !ok {
				return nil
			}
			p.log.Warnf("inbox watcher error: %v", err)
		}
	}
}

// drainExisting processes files that were dropped while the watcher was not
// running.
func (p *Processor) drainExisting(ctx context.Context) error {
	pattern := p.watcher.Pattern()
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(p.watcher.RootDir(), pattern))
	if err != nil {
		return fmt.Errorf("failed to scan inbox: %w", err)
	}

	for _, path := range matches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p.processFile(ctx, path)
	}

	return nil
}

// processFile handles a single drop file. Errors are logged, not returned,
// so one bad file does not stop the inbox.
func (p *Processor) processFile(ctx context.Context, path string) {
	drop, err := readDropFile(path)
	if err != nil {
		p.log.Errorf("rejecting inbox file %s: %v", filepath.Base(path), err)
		p.retire(path, ".failed")
		return
	}

	p.log.Infof("processing run %s from inbox file %s", drop.RunID, filepath.Base(path))

	start := time.Now()
	if err := p.handler(ctx, drop.RunID, drop.Resend); err != nil {
		p.log.Errorf("dispatch for run %s failed after %s: %v", drop.RunID, time.Since(start).Round(time.Millisecond), err)
		p.retire(path, ".failed")
		return
	}

	p.log.Infof("run %s dispatched in %s", drop.RunID, time.Since(start).Round(time.Millisecond))
	p.retire(path, ".done")
}

// retire renames a processed file out of the watch pattern.
func (p *Processor) retire(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		p.log.Warnf("failed to retire inbox file %s: %v", filepath.Base(path), err)
	}
}

func readDropFile(path string) (DropFile, error) {
	var drop DropFile

	data, err := os.ReadFile(path)
	if err != nil {
		return drop, fmt.Errorf("failed to read drop file: %w", err)
	}

	if err := json.Unmarshal(data, &drop); err != nil {
		return drop, fmt.Errorf("failed to parse drop file: %w", err)
	}

	if drop.RunID == "" {
		return drop, fmt.Errorf("drop file missing run_id")
	}

	return drop, nil
}
