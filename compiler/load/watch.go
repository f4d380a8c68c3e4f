package load

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceWindow coalesces editor write bursts into one callback.
const debounceWindow = 150 * time.Millisecond

// Watch invokes fn with the changed path whenever one of the schema
// documents is written or recreated. It blocks until ctx is cancelled.
// Events arriving within the debounce window are coalesced per path.
func Watch(ctx context.Context, paths []string, log zerolog.Logger, fn func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("load: create watcher: %w", err)
	}
	defer w.Close()
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return fmt.Errorf("load: watch %s: %w", p, err)
		}
	}

	timers := make(map[string]*time.Timer)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := ev.Name
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounceWindow, func() {
				log.Debug().Str("path", path).Msg("schema changed")
				fn(path)
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}
