package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sweeper periodically removes stale spool entries. Uploads normally clean
// up after themselves; entries older than maxAge are orphans left behind by
// a crash mid-upload.
type Sweeper struct {
	basePath string
	maxAge   time.Duration
	interval time.Duration
	done     chan struct{}
}

// NewSweeper creates a sweeper over the spool directory at basePath.
func NewSweeper(basePath string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{
		basePath: basePath,
		maxAge:   maxAge,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("spool sweeper started", "interval", s.interval, "max_age", s.maxAge)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Run once immediately on start
		s.sweep()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				slog.Info("spool sweeper stopping")
				close(s.done)
				return
			}
		}
	}()
}

// Wait blocks until the sweeper has fully stopped.
func (s *Sweeper) Wait() {
	<-s.done
}

func (s *Sweeper) sweep() {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		slog.Error("failed to read spool directory", "path", s.basePath, "error", err)
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.basePath, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Error("failed to remove stale spool entry", "path", path, "error", err)
			continue
		}
		removed++
		slog.Info("removed stale spool entry", "path", path, "age", time.Since(info.ModTime()))
	}

	if removed > 0 {
		slog.Info("spool sweep complete", "removed", removed)
	}
}
