// Package reload lets a running daemon pick up configuration changes
// without a restart: a Watcher polls the config file for modification,
// and a Handler turns a fresh config into a new job set.
package reload

import (
	"context"
	"os"
	"sync"
	"time"
)

const defaultPollInterval = 10 * time.Second

// WatcherConfig configures the config-file watcher.
type WatcherConfig struct {
	// Path is the configuration file to watch.
	Path string

	// PollInterval is how often the file's modification time is
	// checked. Defaults to 10 seconds.
	PollInterval time.Duration
}

func (c WatcherConfig) withDefaults() WatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Watcher polls a configuration file and reports modifications.
type Watcher struct {
	cfg     WatcherConfig
	changes chan string
	stop    chan struct{}
	done    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	mu        sync.Mutex
}

// NewWatcher creates a Watcher for the given file.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg.withDefaults(),
		changes: make(chan string, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Changes delivers the config path each time the file's modification
// time advances. Events are debounced: at most one is buffered.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start begins polling. Only the first call has an effect. The
// baseline modification time is captured before Start returns, so any
// change made after Start is reported.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.mu.Lock()
		w.started = true
		w.mu.Unlock()
		last := w.modTime()
		go w.poll(ctx, last)
	})
}

// Stop halts polling and waits for the poll goroutine, if any.
// Safe to call more than once and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })

	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
}

func (w *Watcher) poll(ctx context.Context, last time.Time) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.modTime()
			if current.IsZero() || !current.After(last) {
				continue
			}
			last = current
			select {
			case w.changes <- w.cfg.Path:
			default:
				// An event is already pending.
			}
		}
	}
}

// modTime returns the file's modification time, or zero when the file
// is unreadable. A temporarily missing file is not an event: editors
// often replace files non-atomically.
func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.cfg.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
