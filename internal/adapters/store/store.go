// Package store persists the metrics snapshot as a JSON file shared between processes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/errkind"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

const defaultFileMode os.FileMode = 0o644

// Store reads and atomically replaces the metrics file. Writers sharing a Store
// are serialised; other processes only ever see a complete file.
type Store struct {
	path string
	perm os.FileMode
	now  func() time.Time
	mu   sync.Mutex
}

// New creates a Store backed by path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path: filepath.Clean(path),
		perm: defaultFileMode,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// Read loads the snapshot. Missing fields decode to their defaults.
func (s *Store) Read() (snapshot.Snapshot, error) {
	return s.read(snapshot.Default())
}

func (s *Store) read(base snapshot.Snapshot) (snapshot.Snapshot, error) {
	const op = "store.read"
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return base, errkind.Wrap(op, ErrRead, err)
	}
	snap, invalid, err := snapshot.Decode(raw, base)
	if err != nil {
		return base, errkind.Wrap(op, ErrParse, err)
	}
	if len(invalid) > 0 {
		metrics.RecordStoreReadError()
		logger.Named("store").Warn(context.Background(), "ignoring invalid metrics fields",
			logger.String("path", s.path), logger.Any("fields", invalid))
	}
	return snap, nil
}

// ReadOrDefault loads the snapshot, substituting the default on any failure.
// The second result reports whether the file was read successfully.
func (s *Store) ReadOrDefault() (snapshot.Snapshot, bool) {
	return s.ReadOver(snapshot.Default())
}

// ReadOver loads the snapshot with base supplying every field the file lacks
// or holds an unusable value for. base is returned whole when the file cannot
// be read or is not a JSON object.
func (s *Store) ReadOver(base snapshot.Snapshot) (snapshot.Snapshot, bool) {
	snap, err := s.read(base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			metrics.RecordStoreReadError()
		}
		return base, false
	}
	return snap, true
}

// Write replaces the file with snap. The content goes to a temp file in the same
// directory which is synced and renamed over the target.
func (s *Store) Write(snap snapshot.Snapshot) error {
	const op = "store.write"
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		metrics.RecordStoreWriteError()
		return errkind.Wrap(op, ErrWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWriteFile(s.path, raw, s.perm); err != nil {
		metrics.RecordStoreWriteError()
		return errkind.Wrap(op, ErrWrite, err)
	}
	metrics.RecordStoreWrite()
	return nil
}

func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}

// Watch calls fn with the current snapshot and again every time the file is
// replaced or written, until ctx is cancelled. The directory is watched rather
// than the file because each write renames a new inode into place.
func (s *Store) Watch(ctx context.Context, fn func(snapshot.Snapshot)) error {
	const op = "store.watch"
	log := logger.Named("store")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errkind.Wrap(op, ErrWatch, err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return errkind.Wrap(op, ErrWatch, err)
	}

	if snap, ok := s.ReadOrDefault(); ok {
		fn(snap)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			snap, ok := s.ReadOrDefault()
			if !ok {
				log.Debug(ctx, "metrics file changed but could not be read",
					logger.String("path", s.path), logger.String("op", event.Op.String()))
				continue
			}
			fn(snap)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "metrics file watcher error", logger.Error(err))
		}
	}
}
