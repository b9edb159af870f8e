package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every node and relationship type known to the process. It is
// populated at startup and read concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	nodes    map[string]*NodeType
	order    []string
	rels     map[string]*RelationshipType
	relOrder []string
	bySource map[string][]string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:    make(map[string]*NodeType),
		rels:     make(map[string]*RelationshipType),
		bySource: make(map[string][]string),
	}
}

// RegisterNode adds a node type. Labels must be unique.
func (r *Registry) RegisterNode(t *NodeType) error {
	if t == nil {
		return fmt.Errorf("schema: node type is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[t.Label]; exists {
		return fmt.Errorf("schema: node type %q already registered", t.Label)
	}
	r.nodes[t.Label] = t
	r.order = append(r.order, t.Label)
	return nil
}

// MustRegisterNode panics when RegisterNode fails.
func (r *Registry) MustRegisterNode(types ...*NodeType) {
	for _, t := range types {
		if err := r.RegisterNode(t); err != nil {
			panic(err)
		}
	}
}

// RegisterRelationship adds a relationship type. The endpoint node types do
// not have to be registered; such relationships are simply left out of the
// schema overview.
func (r *Registry) RegisterRelationship(rt *RelationshipType) error {
	if rt == nil {
		return fmt.Errorf("schema: relationship type is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rels[rt.Type]; exists {
		return fmt.Errorf("schema: relationship type %q already registered", rt.Type)
	}
	r.rels[rt.Type] = rt
	r.relOrder = append(r.relOrder, rt.Type)
	r.bySource[rt.Source.Label] = append(r.bySource[rt.Source.Label], rt.Type)
	return nil
}

// MustRegisterRelationship panics when RegisterRelationship fails.
func (r *Registry) MustRegisterRelationship(types ...*RelationshipType) {
	for _, rt := range types {
		if err := r.RegisterRelationship(rt); err != nil {
			panic(err)
		}
	}
}

// NodeType returns the node type registered under label.
func (r *Registry) NodeType(label string) (*NodeType, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.nodes[label]
	return t, ok
}

// HasNode reports whether label is registered.
func (r *Registry) HasNode(label string) bool {
	_, ok := r.NodeType(label)
	return ok
}

// NodeTypes returns the registered node types in registration order.
func (r *Registry) NodeTypes() []*NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*NodeType, 0, len(r.order))
	for _, label := range r.order {
		out = append(out, r.nodes[label])
	}
	return out
}

// AllNodeTypes returns a copy of the label to node type mapping.
func (r *Registry) AllNodeTypes() map[string]*NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*NodeType, len(r.nodes))
	for label, t := range r.nodes {
		out[label] = t
	}
	return out
}

// RelationshipType returns the relationship type registered under tag.
func (r *Registry) RelationshipType(tag string) (*RelationshipType, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.rels[tag]
	return rt, ok
}

// RelationshipTypes returns the registered relationship types in
// registration order.
func (r *Registry) RelationshipTypes() []*RelationshipType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RelationshipType, 0, len(r.relOrder))
	for _, tag := range r.relOrder {
		out = append(out, r.rels[tag])
	}
	return out
}

// RelationshipTypesByTag returns a copy of the tag to relationship type
// mapping.
func (r *Registry) RelationshipTypesByTag() map[string]*RelationshipType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*RelationshipType, len(r.rels))
	for tag, rt := range r.rels {
		out[tag] = rt
	}
	return out
}

// RelationshipTypesBySourceLabel maps each source label to the sorted tags of
// the relationship types leaving it.
func (r *Registry) RelationshipTypesBySourceLabel() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.bySource))
	for label, tags := range r.bySource {
		sorted := append([]string(nil), tags...)
		sort.Strings(sorted)
		out[label] = sorted
	}
	return out
}

// Outgoing returns the relationship types whose source is label, in
// registration order.
func (r *Registry) Outgoing(label string) []*RelationshipType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := r.bySource[label]
	out := make([]*RelationshipType, 0, len(tags))
	for _, tag := range tags {
		out = append(out, r.rels[tag])
	}
	return out
}
