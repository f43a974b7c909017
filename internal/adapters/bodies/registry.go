// Package bodies holds the simulated behaviour of each node type, keyed by
// type in a registry the simulator dispatches through.
package bodies

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

type RegistrationError struct {
	NodeType domain.NodeType
	Reason   string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register body for %q: %s", e.NodeType, e.Reason)
}

type Registry struct {
	bodies map[domain.NodeType]ports.NodeBody
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		bodies: make(map[domain.NodeType]ports.NodeBody),
		logger: logger.With("component", "registry", "type", "bodies"),
	}
}

func (r *Registry) RegisterBody(nodeType domain.NodeType, body ports.NodeBody) error {
	if body == nil {
		return &RegistrationError{NodeType: nodeType, Reason: "body cannot be nil"}
	}
	if !nodeType.Valid() {
		return &RegistrationError{NodeType: nodeType, Reason: "unknown node type"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bodies[nodeType]; exists {
		r.logger.Warn("body registration conflict detected", "node_type", nodeType)
		return &RegistrationError{NodeType: nodeType, Reason: "body already registered"}
	}

	r.bodies[nodeType] = body
	r.logger.Debug("body registered", "node_type", nodeType)
	return nil
}

// ReplaceBody installs body for nodeType whether or not one is registered.
func (r *Registry) ReplaceBody(nodeType domain.NodeType, body ports.NodeBody) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bodies[nodeType] = body
	r.logger.Debug("body replaced", "node_type", nodeType)
}

func (r *Registry) GetBody(nodeType domain.NodeType) (ports.NodeBody, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	body, exists := r.bodies[nodeType]
	if !exists || body == nil {
		return nil, fmt.Errorf("%w: no body registered for %q", domain.ErrUnknownNodeType, nodeType)
	}
	return body, nil
}

func (r *Registry) ListTypes() []domain.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.NodeType, 0, len(r.bodies))
	for t := range r.bodies {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
