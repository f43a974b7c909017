package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"

	_ "modernc.org/sqlite"
)

const sqliteFile = "history.db"

// SQLiteStore persists execution traces in a single SQLite table. The trace
// itself is stored as JSON; the remaining columns exist for ordering and
// ad-hoc inspection.
type SQLiteStore struct {
	db       *sql.DB
	owned    bool
	maxItems int
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenSQLiteStore opens the database described by cfg: DSN when set, an
// in-memory database when InMemory is set, <Dir>/history.db otherwise.
func OpenSQLiteStore(cfg domain.HistoryConfig, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := cfg.DSN
	switch {
	case dsn != "":
	case cfg.InMemory:
		dsn = ":memory:"
	default:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir %q: %w", cfg.Dir, err)
		}
		dsn = filepath.Join(cfg.Dir, sqliteFile)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open execution history %q: %w", dsn, err)
	}
	// every connection to :memory: would see its own database
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db, cfg.MaxItems, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// NewSQLiteStore creates the schema in db if needed. The caller keeps
// ownership of db.
func NewSQLiteStore(db *sql.DB, maxItems int, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SQLiteStore{
		db:       db,
		maxItems: maxItems,
		logger:   logger.With("component", "history", "backend", "sqlite"),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			graph_name TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS executions_started_at ON executions (started_at DESC, id DESC);`,
	)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, execution *domain.Execution) error {
	if execution == nil || execution.ID == "" {
		return fmt.Errorf("%w: execution id is required", domain.ErrInvalidInput)
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	data, err := xjson.Marshal(execution)
	if err != nil {
		return fmt.Errorf("encode execution %s: %w", execution.ID, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (id, graph_name, status, started_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			graph_name = excluded.graph_name,
			status = excluded.status,
			started_at = excluded.started_at,
			data = excluded.data`,
		execution.ID,
		execution.GraphName,
		string(execution.Status),
		execution.StartedAt.UnixNano(),
		data,
	)
	if err != nil {
		return fmt.Errorf("save execution %s: %w", execution.ID, err)
	}

	if s.maxItems > 0 {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM executions WHERE id NOT IN (
				SELECT id FROM executions ORDER BY started_at DESC, id DESC LIMIT ?
			)`, s.maxItems)
		if err != nil {
			return fmt.Errorf("prune execution history: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Debug("pruned execution history", "removed", n)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM executions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", id, err)
	}
	return decodeExecution(id, data)
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*domain.Execution, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// LIMIT -1 means no limit in SQLite
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM executions
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	executions := []*domain.Execution{}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		execution, err := decodeExecution(id, data)
		if err != nil {
			return nil, err
		}
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return executions, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM executions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete execution %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	s.closed = true
	if s.owned {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

func decodeExecution(id string, data []byte) (*domain.Execution, error) {
	var execution domain.Execution
	if err := xjson.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("decode execution %s: %w", id, err)
	}
	return &execution, nil
}
