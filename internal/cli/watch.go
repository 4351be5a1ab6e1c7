package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/warren/pkg/errors"
)

// watchDebounce is how long a config must stay quiet before it is re-read.
const watchDebounce = 200 * time.Millisecond

// watchFile calls fn after every settled change to path until ctx is done.
// The parent directory is watched because editors often save by renaming a
// temporary file over the original.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-timer.C:
			fn()
		}
	}
}

// watchArrange re-runs arrange whenever the configuration changes. Failed
// runs are reported and the watch continues.
func (c *CLI) watchArrange(ctx context.Context, input string, f arrangeFlags) error {
	rerun := func() {
		if err := c.runArrange(ctx, input, f); err != nil && ctx.Err() == nil {
			printError("%s", errors.UserMessage(err))
		}
	}
	rerun()
	printInfo("Watching %s (ctrl+c to stop)", input)
	return watchFile(ctx, input, watchDebounce, func() {
		fmt.Println()
		printInfo("%s changed", filepath.Base(input))
		rerun()
	})
}
