package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	log.Debug("sqlite storage opened", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migrations)
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) ([]target.Target, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, uri FROM targets ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	var (
		out   []target.Target
		index = map[int64]int{}
	)
	for rows.Next() {
		var (
			id        int64
			name, uri string
		)
		if err := rows.Scan(&id, &name, &uri); err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[id] = len(out)
		out = append(out, target.Target{Name: name, URI: uri})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	trows, err := s.db.QueryContext(ctx, `SELECT target_id, day, hour, minute FROM triggers ORDER BY target_id, position`)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var id, day, hour, minute int64
		if err := trows.Scan(&id, &day, &hour, &minute); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		tr, err := target.NewTrigger(target.Weekday(day), int(hour), int(minute))
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", out[i].Name, err)
		}
		out[i].Triggers = append(out[i].Triggers, tr)
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []target.Target{}
	}
	return out, nil
}

// Save replaces every row in one transaction.
func (s *sqliteStore) Save(ctx context.Context, ts []target.Target) (err error) {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM triggers`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM targets`); err != nil {
		return err
	}

	for pos, t := range ts {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `INSERT INTO targets(position, name, uri) VALUES(?,?,?)`, pos, t.Name, t.URI)
		if err != nil {
			return err
		}
		var id int64
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for tp, tr := range t.Triggers {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO triggers(target_id, position, day, hour, minute) VALUES(?,?,?,?,?)`,
				id, tp, int(tr.Day()), tr.Hour(), tr.Minute(),
			)
			if err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("targets saved", logx.Int("targets", len(ts)))
	return nil
}
