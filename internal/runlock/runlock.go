// Package runlock holds the single-instance lock. Two processes polling
// the same bot token split the update stream between them, so a second
// instance must refuse to start instead of silently stealing updates.
package runlock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockFileName = "sdvbot.lock"

type Options struct {
	Retry    time.Duration
	MaxRetry int
}

func DefaultOptions() *Options {
	return &Options{
		Retry:    500 * time.Millisecond,
		MaxRetry: 10,
	}
}

// Lock is an acquired process lock. Release it exactly once on shutdown;
// extra Release calls are no-ops.
type Lock struct {
	fl       *flock.Flock
	path     string
	acquired time.Time
	mu       sync.Mutex
}

// Acquire takes the instance lock under dir, creating dir if needed, and
// retries briefly so a restart can overlap the old process winding down.
func Acquire(dir string, opts *Options) (*Lock, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, lockFileName)
	fl := flock.New(path)

	for i := 0; i < opts.MaxRetry; i++ {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("try instance lock %s: %w", path, err)
		}
		if locked {
			l := &Lock{fl: fl, path: path, acquired: time.Now()}
			slog.Info("Instance lock acquired", "path", path)
			return l, nil
		}
		if i < opts.MaxRetry-1 {
			time.Sleep(opts.Retry)
		}
	}

	return nil, fmt.Errorf("another sdvbot instance holds %s", path)
}

func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fl == nil {
		return
	}

	if err := l.fl.Unlock(); err != nil {
		slog.Error("Failed to release instance lock", "path", l.path, "error", err)
	} else {
		slog.Info("Instance lock released", "path", l.path, "held", time.Since(l.acquired).Round(time.Millisecond))
	}
	l.fl = nil
}

func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fl != nil
}
