// Package storage persists the target list between runs.
//
// Two drivers are available:
//   - "file": a JSON or YAML document (picked by extension) written atomically.
//     The file store also implements Watcher so edits made by other processes
//     reach a running scheduler.
//   - "sqlite": a SQLite database (modernc.org/sqlite, no cgo).
package storage
