// Package store defines the graph storage collaborator: nodes identified by
// (label, primary property) and typed relationships between them.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-autograph/pkg/schema"
)

var (
	// ErrNotFound is returned when a node or relationship endpoint does not
	// exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned by Create when the identity is already taken.
	ErrConflict = errors.New("store: node already exists")
	// ErrUnknownType is returned when a stored label or tag is not in the
	// registry.
	ErrUnknownType = errors.New("store: unknown type")
)

// DefaultQueryLimit caps RunQuery results when Query.Limit is unset.
const DefaultQueryLimit = 100

// NodeRef identifies a node.
type NodeRef struct {
	Label string
	PP    string
}

// Ref returns the identity of n.
func Ref(n *schema.Node) NodeRef {
	return NodeRef{Label: n.Label(), PP: n.PP()}
}

// Query selects a subgraph. With Start set it returns the neighbourhood of the
// start node up to Depth hops in either direction (Depth defaults to 1).
// Without Start it returns relationships across the whole graph together with
// their endpoints.
type Query struct {
	Start *NodeRef
	Depth int
	Limit int
}

// Result is the node-link result of a query. Nodes are unique by identity.
type Result struct {
	Nodes         []*schema.Node
	Relationships []*schema.Relationship
}

// Reader is the read side of a Store.
type Reader interface {
	// Match returns the node of type t with the given primary property.
	Match(ctx context.Context, t *schema.NodeType, pp string) (*schema.Node, error)
	// MatchAll returns nodes of type t ordered by primary property. A limit
	// of zero or less returns every node after skip.
	MatchAll(ctx context.Context, t *schema.NodeType, limit, skip int) ([]*schema.Node, error)
	// Count returns the number of nodes of type t.
	Count(ctx context.Context, t *schema.NodeType) (int, error)
	// MatchRelationships returns relationships of type rt.
	MatchRelationships(ctx context.Context, rt *schema.RelationshipType, limit, skip int) ([]*schema.Relationship, error)
	// Outgoing returns the relationships whose source is n.
	Outgoing(ctx context.Context, n *schema.Node) ([]*schema.Relationship, error)
	// RunQuery returns the subgraph selected by q.
	RunQuery(ctx context.Context, q Query) (Result, error)
}

// Writer is the write side of a Store.
type Writer interface {
	// Create persists a new node and fails with ErrConflict when its identity
	// exists.
	Create(ctx context.Context, n *schema.Node) error
	// Merge inserts or replaces a node. Merging the same node twice leaves
	// the same state as merging it once.
	Merge(ctx context.Context, n *schema.Node) error
	// MergeRelationship inserts or replaces a relationship keyed by tag and
	// both endpoint identities. Both endpoints must exist.
	MergeRelationship(ctx context.Context, rel *schema.Relationship) error
}

// Store is the storage collaborator used by views, the API and the bulk
// commands.
type Store interface {
	Reader
	Writer
	Close() error
}

// Page applies limit and skip to an ordered slice.
func Page[T any](items []T, limit, skip int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
