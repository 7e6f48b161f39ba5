package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/afero"

	"autolink/internal/target"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrClosed        = errors.New("storage closed")
)

// Config configures storage.
//
// Driver values:
//   - "file" (or empty): JSON/YAML document at Path
//   - "sqlite": SQLite database file at Path
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	// Fs backs the file driver. Nil means the OS filesystem.
	Fs afero.Fs
}

// Store loads and saves the ordered target list.
type Store interface {
	Load(ctx context.Context) ([]target.Target, error)
	Save(ctx context.Context, targets []target.Target) error
	Close() error
}

// Watcher is implemented by stores that can notice external edits. fn receives
// the freshly loaded list; changes written by the store itself are not reported.
type Watcher interface {
	Watch(ctx context.Context, fn func([]target.Target)) error
}
