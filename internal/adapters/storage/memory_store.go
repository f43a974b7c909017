package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

// MemoryStore keeps executions in process. Entries are stored as encoded
// JSON so callers never share mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string][]byte
	started  map[string]int64
	maxItems int
	closed   bool
	logger   *slog.Logger
}

func NewMemoryStore(maxItems int, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		items:    make(map[string][]byte),
		started:  make(map[string]int64),
		maxItems: maxItems,
		logger:   logger.With("component", "history", "backend", "memory"),
	}
}

func (s *MemoryStore) Save(ctx context.Context, execution *domain.Execution) error {
	if execution == nil || execution.ID == "" {
		return fmt.Errorf("%w: execution id is required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := xjson.Marshal(execution)
	if err != nil {
		return fmt.Errorf("encode execution %s: %w", execution.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	s.items[execution.ID] = data
	s.started[execution.ID] = execution.StartedAt.UnixNano()
	if s.maxItems > 0 && len(s.items) > s.maxItems {
		ids := s.newestFirst()
		for _, id := range ids[s.maxItems:] {
			delete(s.items, id)
			delete(s.started, id)
		}
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	return s.decode(id)
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*domain.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	ids := s.newestFirst()
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	executions := make([]*domain.Execution, 0, len(ids))
	for _, id := range ids {
		execution, err := s.decode(id)
		if err != nil {
			return nil, err
		}
		executions = append(executions, execution)
	}
	return executions, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
	}
	delete(s.items, id)
	delete(s.started, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	s.closed = true
	s.items = nil
	s.started = nil
	return nil
}

func (s *MemoryStore) decode(id string) (*domain.Execution, error) {
	data, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
	}
	return decodeExecution(id, data)
}

// newestFirst must be called with the lock held.
func (s *MemoryStore) newestFirst() []string {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.started[ids[i]] != s.started[ids[j]] {
			return s.started[ids[i]] > s.started[ids[j]]
		}
		return ids[i] > ids[j]
	})
	return ids
}

// New builds the execution store selected by cfg. The none backend yields a
// nil store.
func New(cfg domain.HistoryConfig, logger *slog.Logger) (ports.ExecutionStorePort, error) {
	switch cfg.Backend {
	case domain.HistoryNone:
		return nil, nil
	case "", domain.HistoryMemory:
		return NewMemoryStore(cfg.MaxItems, logger), nil
	case domain.HistoryBadger:
		store, err := OpenBadgerStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.HistorySQLite:
		store, err := OpenSQLiteStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: unknown history backend %q", domain.ErrInvalidInput, cfg.Backend)
}
