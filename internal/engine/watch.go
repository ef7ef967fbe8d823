package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 100 * time.Millisecond

// Watch runs req once and then again every time the input file is written or
// re-created, reporting each outcome to report. It blocks until ctx is
// cancelled and then returns nil.
func (e *Engine) Watch(ctx context.Context, req Request, report func(*Result, error)) error {
	target, err := filepath.Abs(req.Input)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	report(e.Run(ctx, req))
	e.logger.Info("watching for changes", "input", req.Input)

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-egctx.Done()
		return watcher.Close()
	})

	eg.Go(func() error {
		// Debounce timer
		debounce := time.NewTimer(watchDebounce)
		debounce.Stop()
		defer debounce.Stop()

		for {
			select {
			case <-egctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if name, err := filepath.Abs(event.Name); err != nil || name != target {
					continue
				}
				debounce.Reset(watchDebounce)

			case <-debounce.C:
				e.logger.Debug("input changed, re-running", "input", req.Input)
				report(e.Run(egctx, req))

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				e.logger.Error("watcher error", "error", err)
			}
		}
	})

	return eg.Wait()
}
