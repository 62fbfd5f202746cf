// Package registry holds the table of node types available to graphs.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/nodeflow/pkg/models"
	"github.com/dukex/nodeflow/pkg/protocol"
)

// ErrNodeTypeNotFound is returned when a type identifier is not registered.
var ErrNodeTypeNotFound = errors.New("node type not registered")

type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	types  map[string]protocol.NodeType
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger: log.With("module", "registry"),
		types:  make(map[string]protocol.NodeType),
	}
}

// Register adds a node type, replacing any type with the same identifier.
func (r *Registry) Register(nodeType protocol.NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[nodeType.ID()]; exists {
		r.logger.Debug("replacing registered node type", "type", nodeType.ID())
	}

	r.types[nodeType.ID()] = nodeType
}

// Lookup returns the node type registered under id.
func (r *Registry) Lookup(id string) (protocol.NodeType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodeType, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeTypeNotFound, id)
	}

	return nodeType, nil
}

// NodeTypes returns every registered node type sorted by identifier.
func (r *Registry) NodeTypes() []protocol.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]protocol.NodeType, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}

	slices.SortFunc(types, func(a, b protocol.NodeType) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return types
}

// Describe returns listing information for every registered node type.
func (r *Registry) Describe() []models.NodeTypeInfo {
	types := r.NodeTypes()

	infos := make([]models.NodeTypeInfo, 0, len(types))
	for _, t := range types {
		infos = append(infos, protocol.Info(t))
	}

	return infos
}

// HealthCheck reports whether any node type is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.types) == 0 {
		return "No node types registered", false
	}

	return fmt.Sprintf("%d node types registered", len(r.types)), true
}
