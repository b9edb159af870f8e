// Package memory provides an in-process graph store. It is used by tests and
// by the demo application when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// Store keeps nodes and relationships in maps guarded by a RWMutex. Values are
// cloned on the way in and out.
type Store struct {
	mu       sync.RWMutex
	registry *schema.Registry
	nodes    map[store.NodeRef]*schema.Node
	edges    map[string]store.Edge
}

var _ store.Store = (*Store)(nil)

// New creates an empty store over the registered types of reg.
func New(reg *schema.Registry) *Store {
	if reg == nil {
		reg = schema.NewRegistry()
	}
	return &Store{
		registry: reg,
		nodes:    make(map[store.NodeRef]*schema.Node),
		edges:    make(map[string]store.Edge),
	}
}

// Match implements store.Reader.
func (s *Store) Match(ctx context.Context, t *schema.NodeType, pp string) (*schema.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("memory: match: node type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[store.NodeRef{Label: t.Label, PP: pp}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", store.ErrNotFound, t.Label, pp)
	}
	return n.Clone(), nil
}

// MatchAll implements store.Reader.
func (s *Store) MatchAll(ctx context.Context, t *schema.NodeType, limit, skip int) ([]*schema.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("memory: match all: node type is nil")
	}
	s.mu.RLock()
	out := make([]*schema.Node, 0)
	for ref, n := range s.nodes {
		if ref.Label == t.Label {
			out = append(out, n.Clone())
		}
	}
	s.mu.RUnlock()
	schema.SortNodes(out)
	return store.Page(out, limit, skip), nil
}

// Count implements store.Reader.
func (s *Store) Count(ctx context.Context, t *schema.NodeType) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t == nil {
		return 0, fmt.Errorf("memory: count: node type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for ref := range s.nodes {
		if ref.Label == t.Label {
			count++
		}
	}
	return count, nil
}

// MatchRelationships implements store.Reader.
func (s *Store) MatchRelationships(ctx context.Context, rt *schema.RelationshipType, limit, skip int) ([]*schema.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, fmt.Errorf("memory: match relationships: relationship type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := s.sortedEdges(func(e store.Edge) bool { return e.Tag == rt.Type })
	return s.relationships(store.Page(edges, limit, skip))
}

// Outgoing implements store.Reader.
func (s *Store) Outgoing(ctx context.Context, n *schema.Node) ([]*schema.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("memory: outgoing: node is nil")
	}
	ref := store.Ref(n)
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := s.sortedEdges(func(e store.Edge) bool { return e.Source == ref })
	return s.relationships(edges)
}

// RunQuery implements store.Reader.
func (s *Store) RunQuery(ctx context.Context, q store.Query) (store.Result, error) {
	if err := ctx.Err(); err != nil {
		return store.Result{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := s.sortedEdges(nil)
	if q.Start != nil {
		return store.Neighbourhood(s.registry, *q.Start, q.Depth, q.Limit, edges, s.lookup)
	}
	return store.WholeGraph(s.registry, q.Limit, edges, s.lookup)
}

// Create implements store.Writer.
func (s *Store) Create(ctx context.Context, n *schema.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	persisted, err := store.Persisted(s.registry, n)
	if err != nil {
		return err
	}
	ref := store.Ref(persisted)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[ref]; exists {
		return fmt.Errorf("%w: %s %q", store.ErrConflict, ref.Label, ref.PP)
	}
	s.nodes[ref] = persisted
	return nil
}

// Merge implements store.Writer.
func (s *Store) Merge(ctx context.Context, n *schema.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	persisted, err := store.Persisted(s.registry, n)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.nodes[store.Ref(persisted)] = persisted
	s.mu.Unlock()
	return nil
}

// MergeRelationship implements store.Writer.
func (s *Store) MergeRelationship(ctx context.Context, rel *schema.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rel == nil || rel.Type == nil || rel.Source == nil || rel.Target == nil {
		return fmt.Errorf("memory: merge relationship: incomplete relationship")
	}
	if _, ok := s.registry.RelationshipType(rel.Tag()); !ok {
		return fmt.Errorf("%w: relationship %s", store.ErrUnknownType, rel.Tag())
	}
	edge := store.EdgeOf(rel)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ref := range []store.NodeRef{edge.Source, edge.Target} {
		if _, ok := s.nodes[ref]; !ok {
			return fmt.Errorf("%w: %s %q", store.ErrNotFound, ref.Label, ref.PP)
		}
	}
	s.edges[edge.Key()] = edge
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

func (s *Store) lookup(ref store.NodeRef) (*schema.Node, bool) {
	n, ok := s.nodes[ref]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

func (s *Store) sortedEdges(keep func(store.Edge) bool) []store.Edge {
	out := make([]store.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	store.SortEdges(out)
	return out
}

func (s *Store) relationships(edges []store.Edge) ([]*schema.Relationship, error) {
	out := make([]*schema.Relationship, 0, len(edges))
	for _, e := range edges {
		source, ok := s.lookup(e.Source)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", store.ErrNotFound, e.Source.Label, e.Source.PP)
		}
		target, ok := s.lookup(e.Target)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", store.ErrNotFound, e.Target.Label, e.Target.PP)
		}
		rel, err := store.Relationship(s.registry, e, source, target)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}
