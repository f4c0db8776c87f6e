package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"blueprintcore/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS asset_tags (
	path  TEXT NOT NULL,
	tag   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (path, tag)
);
CREATE INDEX IF NOT EXISTS asset_tags_by_value ON asset_tags (tag, value);
`

// Config configures a SQLite index.
type Config struct {
	// Path is the database file. Required.
	Path string

	// PoolSize is the number of connections. Zero means 4.
	PoolSize int

	Logger *slog.Logger
}

// SQLite is an Indexer backed by a SQLite database file.
type SQLite struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open opens or creates the index database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("searchindex: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("searchindex: opening %s: %w", cfg.Path, err)
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("searchindex: take: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("searchindex: creating schema: %w", err)
	}

	logger.Info("search index opened", "path", cfg.Path, "pool_size", poolSize)
	return &SQLite{pool: pool, logger: logger, path: cfg.Path}, nil
}

func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("searchindex: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes every connection. It blocks until borrowed connections are
// returned.
func (s *SQLite) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("searchindex: closing %s: %w", s.path, err)
	}
	s.logger.Info("search index closed", "path", s.path)
	return nil
}

func (s *SQLite) Update(ctx context.Context, def *engine.Definition) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("searchindex: update: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("searchindex: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	path := def.PathName()
	if err := sqlitex.Execute(conn, "DELETE FROM asset_tags WHERE path = ?", &sqlitex.ExecOptions{
		Args: []any{path},
	}); err != nil {
		return fmt.Errorf("searchindex: clear %s: %w", path, err)
	}

	tags := def.RegistryTags()
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := sqlitex.Execute(conn, "INSERT INTO asset_tags (path, tag, value) VALUES (?, ?, ?)", &sqlitex.ExecOptions{
			Args: []any{path, name, tags[name]},
		}); err != nil {
			return fmt.Errorf("searchindex: insert %s %s: %w", path, name, err)
		}
	}
	s.logger.Debug("indexed definition", "path", path, "tags", len(names))
	return nil
}

func (s *SQLite) Remove(ctx context.Context, path string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("searchindex: remove: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, "DELETE FROM asset_tags WHERE path = ?", &sqlitex.ExecOptions{
		Args: []any{path},
	}); err != nil {
		return fmt.Errorf("searchindex: remove %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) Tags(ctx context.Context, path string) (map[string]string, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("searchindex: tags: %w", err)
	}
	defer s.pool.Put(conn)

	tags := map[string]string{}
	err = sqlitex.Execute(conn, "SELECT tag, value FROM asset_tags WHERE path = ?", &sqlitex.ExecOptions{
		Args: []any{path},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tags[stmt.ColumnText(0)] = stmt.ColumnText(1)
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("searchindex: tags %s: %w", path, err)
	}
	if len(tags) == 0 {
		return nil, false, nil
	}
	return tags, true, nil
}

func (s *SQLite) Find(ctx context.Context, tag, value string) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("searchindex: find: %w", err)
	}
	defer s.pool.Put(conn)

	var paths []string
	err = sqlitex.Execute(conn, "SELECT path FROM asset_tags WHERE tag = ? AND value = ? ORDER BY path", &sqlitex.ExecOptions{
		Args: []any{tag, value},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			paths = append(paths, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searchindex: find %s=%s: %w", tag, value, err)
	}
	return paths, nil
}
