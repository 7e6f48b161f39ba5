package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"autolink/internal/target"
	"autolink/pkg/docfmt"
	"autolink/pkg/fswatch"
	logx "autolink/pkg/logx"
)

const documentVersion = 1

// document is the on-disk shape of the file driver.
type document struct {
	Version int             `json:"version"`
	Targets []target.Target `json:"targets"`
}

// FileStore keeps the target list in a single JSON or YAML document.
type FileStore struct {
	fs   afero.Fs
	path string
	log  logx.Logger

	mu sync.Mutex
	// lastHash is the hash of the bytes most recently read or written. The
	// watcher uses it to ignore our own saves.
	lastHash uint64
	closed   bool
}

func NewFileStore(fs afero.Fs, path string, log logx.Logger) *FileStore {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &FileStore{fs: fs, path: path, log: log}
}

func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty list.
func (s *FileStore) Load(ctx context.Context) ([]target.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	b, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("targets file missing; starting empty", logx.String("path", s.path))
		return []target.Target{}, nil
	}
	if err != nil {
		return nil, err
	}
	ts, err := decodeDocument(s.path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.lastHash = docfmt.Hash(b)
	return ts, nil
}

// Save writes the document atomically (temp file + rename). Content identical
// to the last read or write is not rewritten.
func (s *FileStore) Save(ctx context.Context, ts []target.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := docfmt.Encode(s.path, document{Version: documentVersion, Targets: documentTargets(ts)})
	if err != nil {
		return err
	}
	h := docfmt.Hash(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if h == s.lastHash {
		if _, err := s.fs.Stat(s.path); err == nil {
			return nil
		}
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o600); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	s.lastHash = h
	s.log.Debug("targets saved", logx.String("path", s.path), logx.Int("targets", len(ts)))
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Watch reports external edits to the document until ctx is done. It relies
// on fsnotify and therefore only sees changes on the OS filesystem.
func (s *FileStore) Watch(ctx context.Context, fn func([]target.Target)) error {
	return fswatch.Run(ctx, fswatch.Options{Path: s.path, Log: s.log}, func() {
		s.reload(fn)
	})
}

// reload re-reads the document and hands it to fn when its content differs
// from what this store last read or wrote.
func (s *FileStore) reload(fn func([]target.Target)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		s.mu.Unlock()
		// Removal (or a rename in progress) keeps the current list.
		s.log.Debug("targets file unreadable; keeping current list", logx.String("path", s.path), logx.Err(err))
		return
	}
	h := docfmt.Hash(b)
	if h == s.lastHash {
		s.mu.Unlock()
		s.log.Debug("targets file unchanged; skipping", logx.String("path", s.path))
		return
	}
	ts, err := decodeDocument(s.path, b)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("targets file rejected", logx.String("path", s.path), logx.Err(err))
		return
	}
	s.lastHash = h
	s.mu.Unlock()

	s.log.Info("targets file changed", logx.String("path", s.path), logx.Int("targets", len(ts)))
	fn(ts)
}

func decodeDocument(path string, b []byte) ([]target.Target, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return []target.Target{}, nil
	}
	var doc document
	if err := docfmt.DecodeStrict(path, b, &doc); err != nil {
		return nil, err
	}
	if doc.Version != 0 && doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported document version %d", doc.Version)
	}
	for i, t := range doc.Targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
	}
	if doc.Targets == nil {
		doc.Targets = []target.Target{}
	}
	return doc.Targets, nil
}

// documentTargets copies ts for encoding. Manual-only targets are written
// with an empty trigger list rather than null.
func documentTargets(ts []target.Target) []target.Target {
	out := target.CloneAll(ts)
	for i := range out {
		if out[i].Triggers == nil {
			out[i].Triggers = []target.Trigger{}
		}
	}
	return out
}
