package genre

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Store holds the active Normalizer. Readers take a snapshot with Current
// and keep it for the whole graph build, so a reload never changes the
// table underneath a running request.
type Store struct {
	current  atomic.Pointer[Normalizer]
	path     string
	logger   *slog.Logger
	debounce time.Duration
}

// NewStore creates a Store. With an empty path the built-in table is used
// and Watch returns immediately. Otherwise the file must load cleanly.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		logger:   logger.With(slog.String("component", "genre")),
		debounce: defaultDebounce,
	}

	if path == "" {
		s.current.Store(NewNormalizer(DefaultTable()))
		return s, nil
	}

	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(NewNormalizer(table))
	s.logger.Info("genre map loaded", slog.String("path", path), slog.Int("tags", len(table)))
	return s, nil
}

// SetDebounce overrides the reload debounce interval (for testing).
func (s *Store) SetDebounce(d time.Duration) {
	s.debounce = d
}

// Current returns the active Normalizer.
func (s *Store) Current() *Normalizer {
	return s.current.Load()
}

// Reload re-reads the genre map file. On failure the previous table stays active.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	table, err := LoadTable(s.path)
	if err != nil {
		return err
	}
	s.current.Store(NewNormalizer(table))
	s.logger.Info("genre map reloaded", slog.String("path", s.path), slog.Int("tags", len(table)))
	return nil
}

// Watch blocks until ctx is canceled, reloading the genre map whenever the
// file changes. The parent directory is watched so editors that replace the
// file via rename are picked up.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating genre map watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	target := filepath.Clean(s.path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching genre map directory: %w", err)
	}

	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(s.debounce)
			pending = true

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("genre map watcher error", "error", err)

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			if err := s.Reload(); err != nil {
				s.logger.Warn("genre map reload failed, keeping previous table", "error", err)
			}
		}
	}
}
