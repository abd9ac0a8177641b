// Package backup moves the current database file aside before a
// destructive rebuild. The file is renamed, not copied, so the rebuild
// always starts from a fresh database while the previous one stays
// recoverable next to it.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Transient file locks from a closing database handle clear quickly,
// so the rename is retried a few times before giving up.
const (
	renameAttempts = 5
	renameBackoff  = 200 * time.Millisecond
)

// Confirmer asks the operator whether the current database may be
// moved aside. Returning false cancels the run before any write.
type Confirmer func(ctx context.Context) (bool, error)

// AlwaysConfirm skips the prompt, for non-interactive runs.
func AlwaysConfirm(context.Context) (bool, error) { return true, nil }

// Snapshotter renames the database file to the next free ".old" name.
type Snapshotter struct {
	path    string
	confirm Confirmer
	logger  *slog.Logger
}

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Snapshotter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Snapshotter for the given database file.
func New(path string, confirm Confirmer, opts ...Option) *Snapshotter {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	s := &Snapshotter{
		path:    path,
		confirm: confirm,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot moves the database file aside. A missing file is a
// successful no-op. Returns false without error when the operator
// declines.
func (s *Snapshotter) Snapshot(ctx context.Context) (bool, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no database file present, skipping backup", "path", s.path)
			return true, nil
		}
		return false, fmt.Errorf("stat database: %w", err)
	}

	ok, err := s.confirm(ctx)
	if err != nil {
		return false, fmt.Errorf("confirm backup: %w", err)
	}
	if !ok {
		s.logger.Info("backup declined by operator", "path", s.path)
		return false, nil
	}

	target := nextAvailablePath(s.path + ".old")
	if err := renameWithRetry(ctx, s.path, target); err != nil {
		return false, fmt.Errorf("move database aside: %w", err)
	}
	s.logger.Info("database moved aside", "from", s.path, "to", target)
	return true, nil
}

// nextAvailablePath returns base when free, otherwise base.1, base.2, …
// at the first unused number.
func nextAvailablePath(base string) string {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", base, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func renameWithRetry(ctx context.Context, from, to string) error {
	var err error
	for attempt := 0; attempt < renameAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(renameBackoff * time.Duration(attempt)):
			}
		}
		if err = os.Rename(from, to); err == nil {
			return nil
		}
	}
	return err
}
