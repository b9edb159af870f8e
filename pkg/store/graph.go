package store

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-autograph/pkg/schema"
)

// Persisted projects n onto its registered node type so ad hoc form fields
// are not stored. Nodes of unregistered labels are returned unchanged when
// reg is nil and rejected otherwise.
func Persisted(reg *schema.Registry, n *schema.Node) (*schema.Node, error) {
	if n == nil || n.Type == nil {
		return nil, fmt.Errorf("store: node has no type")
	}
	if n.PP() == "" {
		return nil, fmt.Errorf("store: %s node has no primary property", n.Label())
	}
	if reg == nil {
		return n.Clone(), nil
	}
	registered, ok := reg.NodeType(n.Label())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, n.Label())
	}
	if registered == n.Type {
		return n.Clone(), nil
	}
	return n.As(registered), nil
}

// Edge is the storage shape of a relationship.
type Edge struct {
	Tag        string
	Source     NodeRef
	Target     NodeRef
	Properties map[string]any
}

// EdgeOf returns the storage shape of rel.
func EdgeOf(rel *schema.Relationship) Edge {
	props := make(map[string]any, len(rel.Properties))
	for k, v := range rel.Properties {
		props[k] = v
	}
	return Edge{Tag: rel.Tag(), Source: Ref(rel.Source), Target: Ref(rel.Target), Properties: props}
}

// Key identifies the edge by tag and both endpoints.
func (e Edge) Key() string {
	return e.Tag + "\x00" + e.Source.Label + "\x00" + e.Source.PP + "\x00" + e.Target.Label + "\x00" + e.Target.PP
}

// Lookup loads nodes by identity while a subgraph is assembled.
type Lookup func(ref NodeRef) (*schema.Node, bool)

// Neighbourhood walks edges breadth first from start, following edges in both
// directions up to depth hops, and returns the visited nodes and traversed
// relationships. Edges are visited in the order supplied; the number of
// relationships is capped at limit.
func Neighbourhood(reg *schema.Registry, start NodeRef, depth, limit int, edges []Edge, lookup Lookup) (Result, error) {
	if depth <= 0 {
		depth = 1
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	startNode, ok := lookup(start)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s %q", ErrNotFound, start.Label, start.PP)
	}

	adjacent := make(map[NodeRef][]int)
	for i, e := range edges {
		adjacent[e.Source] = append(adjacent[e.Source], i)
		if e.Target != e.Source {
			adjacent[e.Target] = append(adjacent[e.Target], i)
		}
	}

	b := newResultBuilder(reg, lookup)
	b.addNode(startNode)
	frontier := []NodeRef{start}
	visited := map[NodeRef]bool{start: true}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []NodeRef
		for _, ref := range frontier {
			for _, idx := range adjacent[ref] {
				if len(b.result.Relationships) >= limit {
					return b.result, nil
				}
				e := edges[idx]
				if err := b.addEdge(e); err != nil {
					return Result{}, err
				}
				other := e.Target
				if other == ref {
					other = e.Source
				}
				if !visited[other] {
					visited[other] = true
					next = append(next, other)
				}
			}
		}
		frontier = next
	}
	return b.result, nil
}

// WholeGraph returns up to limit relationships together with their endpoints.
func WholeGraph(reg *schema.Registry, limit int, edges []Edge, lookup Lookup) (Result, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	b := newResultBuilder(reg, lookup)
	for _, e := range edges {
		if len(b.result.Relationships) >= limit {
			break
		}
		if err := b.addEdge(e); err != nil {
			return Result{}, err
		}
	}
	return b.result, nil
}

// SortEdges orders edges by tag, then source and target identity.
func SortEdges(edges []Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Key() < edges[j].Key()
	})
}

// Relationship rebuilds a relationship from its edge and loaded endpoints.
func Relationship(reg *schema.Registry, e Edge, source, target *schema.Node) (*schema.Relationship, error) {
	rt, ok := reg.RelationshipType(e.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: relationship %s", ErrUnknownType, e.Tag)
	}
	props := make(map[string]any, len(e.Properties))
	for k, v := range e.Properties {
		props[k] = v
	}
	return &schema.Relationship{Type: rt, Source: source, Target: target, Properties: props}, nil
}

type resultBuilder struct {
	reg    *schema.Registry
	lookup Lookup
	result Result
	nodes  map[NodeRef]*schema.Node
	edges  map[string]bool
}

func newResultBuilder(reg *schema.Registry, lookup Lookup) *resultBuilder {
	return &resultBuilder{
		reg:    reg,
		lookup: lookup,
		result: Result{Nodes: []*schema.Node{}, Relationships: []*schema.Relationship{}},
		nodes:  make(map[NodeRef]*schema.Node),
		edges:  make(map[string]bool),
	}
}

func (b *resultBuilder) addNode(n *schema.Node) *schema.Node {
	ref := Ref(n)
	if existing, ok := b.nodes[ref]; ok {
		return existing
	}
	b.nodes[ref] = n
	b.result.Nodes = append(b.result.Nodes, n)
	return n
}

func (b *resultBuilder) node(ref NodeRef) (*schema.Node, error) {
	if n, ok := b.nodes[ref]; ok {
		return n, nil
	}
	n, ok := b.lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, ref.Label, ref.PP)
	}
	return b.addNode(n), nil
}

func (b *resultBuilder) addEdge(e Edge) error {
	if b.edges[e.Key()] {
		return nil
	}
	source, err := b.node(e.Source)
	if err != nil {
		return err
	}
	target, err := b.node(e.Target)
	if err != nil {
		return err
	}
	rel, err := Relationship(b.reg, e, source, target)
	if err != nil {
		return err
	}
	b.edges[e.Key()] = true
	b.result.Relationships = append(b.result.Relationships, rel)
	return nil
}
