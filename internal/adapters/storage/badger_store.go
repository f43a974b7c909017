package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

const (
	dataPrefix = "exec:data:"
	timePrefix = "exec:time:"
)

func dataKey(id string) []byte {
	return []byte(dataPrefix + id)
}

// timeKey orders executions by start time; the zero-padded nanoseconds sort
// lexicographically.
func timeKey(execution *domain.Execution) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", timePrefix, execution.StartedAt.UnixNano(), execution.ID))
}

// BadgerStore persists execution traces in badger. Each trace is stored
// under its id together with a start-time index entry used for listing.
type BadgerStore struct {
	db       *badger.DB
	owned    bool
	maxItems int
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenBadgerStore opens (or creates) the database described by cfg.
func OpenBadgerStore(cfg domain.HistoryConfig, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLoggingLevel(badger.ERROR)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open execution history at %q: %w", cfg.Dir, err)
	}

	store := NewBadgerStore(db, cfg.MaxItems, logger)
	store.owned = true
	return store, nil
}

// NewBadgerStore wraps an already open database. The caller keeps ownership
// of db; Close does not close it.
func NewBadgerStore(db *badger.DB, maxItems int, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{
		db:       db,
		maxItems: maxItems,
		logger:   logger.With("component", "history", "backend", "badger"),
	}
}

func (s *BadgerStore) Save(ctx context.Context, execution *domain.Execution) error {
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

	err = s.db.Update(func(txn *badger.Txn) error {
		if previous, err := s.read(txn, execution.ID); err == nil {
			if err := txn.Delete(timeKey(previous)); err != nil {
				return err
			}
		} else if !errors.Is(err, domain.ErrExecutionNotFound) {
			return err
		}

		if err := txn.Set(dataKey(execution.ID), data); err != nil {
			return err
		}
		return txn.Set(timeKey(execution), []byte(execution.ID))
	})
	if err != nil {
		return fmt.Errorf("save execution %s: %w", execution.ID, err)
	}

	s.logger.Debug("execution saved", "execution_id", execution.ID, "status", execution.Status)
	return s.prune()
}

func (s *BadgerStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var execution *domain.Execution
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		execution, err = s.read(txn, id)
		return err
	})
	return execution, err
}

// List returns up to limit executions, most recently started first. A
// non-positive limit returns every execution.
func (s *BadgerStore) List(ctx context.Context, limit int) ([]*domain.Execution, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	executions := []*domain.Execution{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(timePrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(timePrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(executions) >= limit {
				break
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			execution, err := s.read(txn, string(id))
			if errors.Is(err, domain.ErrExecutionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			executions = append(executions, execution)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return executions, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		execution, err := s.read(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(timeKey(execution)); err != nil {
			return err
		}
		return txn.Delete(dataKey(id))
	})
}

func (s *BadgerStore) Close() error {
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

func (s *BadgerStore) check(ctx context.Context) error {
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

func (s *BadgerStore) read(txn *badger.Txn, id string) (*domain.Execution, error) {
	item, err := txn.Get(dataKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
		}
		return nil, err
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return decodeExecution(id, data)
}

// prune drops the oldest executions beyond maxItems.
func (s *BadgerStore) prune() error {
	if s.maxItems <= 0 {
		return nil
	}

	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(timePrefix)
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		for it.Seek(append([]byte(timePrefix), 0xFF)); it.ValidForPrefix(opts.Prefix); it.Next() {
			seen++
			if seen > s.maxItems {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range stale {
			id := key[len(timePrefix)+21:]
			if err := txn.Delete(dataKey(string(id))); err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune execution history: %w", err)
	}
	s.logger.Debug("execution history pruned", "removed", len(stale))
	return nil
}
