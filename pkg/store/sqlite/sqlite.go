// Package sqlite persists the graph in SQLite through database/sql. Nodes are
// rows keyed by (label, pp) with their properties as a JSON document;
// relationships are rows keyed by tag and both endpoint identities.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// DefaultDSN keeps the database in memory.
const DefaultDSN = ":memory:"

const tables = `
CREATE TABLE IF NOT EXISTS nodes (
    label TEXT NOT NULL,
    pp TEXT NOT NULL,
    properties TEXT NOT NULL,
    PRIMARY KEY (label, pp)
);

CREATE TABLE IF NOT EXISTS relationships (
    tag TEXT NOT NULL,
    source_label TEXT NOT NULL,
    source_pp TEXT NOT NULL,
    target_label TEXT NOT NULL,
    target_pp TEXT NOT NULL,
    properties TEXT NOT NULL,
    PRIMARY KEY (tag, source_label, source_pp, target_label, target_pp)
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_label, source_pp);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_label, target_pp);
`

// Store is the SQLite-backed graph store.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	registry *schema.Registry
}

var _ store.Store = (*Store)(nil)

// Open creates a store for dsn, creating the tables when missing. An empty dsn
// selects DefaultDSN.
func Open(reg *schema.Registry, dsn string) (*Store, error) {
	if reg == nil {
		return nil, fmt.Errorf("sqlite: registry is nil")
	}
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// An in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(tables); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create tables: %w", err)
	}
	return &Store{db: db, registry: reg}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Match implements store.Reader.
func (s *Store) Match(ctx context.Context, t *schema.NodeType, pp string) (*schema.Node, error) {
	if t == nil {
		return nil, fmt.Errorf("sqlite: match: node type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.node(ctx, store.NodeRef{Label: t.Label, PP: pp})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MatchAll implements store.Reader.
func (s *Store) MatchAll(ctx context.Context, t *schema.NodeType, limit, skip int) ([]*schema.Node, error) {
	if t == nil {
		return nil, fmt.Errorf("sqlite: match all: node type is nil")
	}
	limit, skip = bounds(limit, skip)
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT properties FROM nodes WHERE label = ? ORDER BY pp LIMIT ? OFFSET ?`,
		t.Label, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("sqlite: match all %s: %w", t.Label, err)
	}
	defer rows.Close()

	out := make([]*schema.Node, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", t.Label, err)
		}
		n, err := s.decodeNode(t.Label, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count implements store.Reader.
func (s *Store) Count(ctx context.Context, t *schema.NodeType) (int, error) {
	if t == nil {
		return 0, fmt.Errorf("sqlite: count: node type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE label = ?`, t.Label).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count %s: %w", t.Label, err)
	}
	return count, nil
}

// MatchRelationships implements store.Reader.
func (s *Store) MatchRelationships(ctx context.Context, rt *schema.RelationshipType, limit, skip int) ([]*schema.Relationship, error) {
	if rt == nil {
		return nil, fmt.Errorf("sqlite: match relationships: relationship type is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges, err := s.edges(ctx, `WHERE tag = ?`, rt.Type)
	if err != nil {
		return nil, err
	}
	return s.relationships(ctx, store.Page(edges, limit, skip))
}

// Outgoing implements store.Reader.
func (s *Store) Outgoing(ctx context.Context, n *schema.Node) ([]*schema.Relationship, error) {
	if n == nil {
		return nil, fmt.Errorf("sqlite: outgoing: node is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges, err := s.edges(ctx, `WHERE source_label = ? AND source_pp = ?`, n.Label(), n.PP())
	if err != nil {
		return nil, err
	}
	return s.relationships(ctx, edges)
}

// RunQuery implements store.Reader.
func (s *Store) RunQuery(ctx context.Context, q store.Query) (store.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges, err := s.edges(ctx, "")
	if err != nil {
		return store.Result{}, err
	}
	var lookupErr error
	lookup := func(ref store.NodeRef) (*schema.Node, bool) {
		n, err := s.node(ctx, ref)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				lookupErr = err
			}
			return nil, false
		}
		return n, true
	}

	var result store.Result
	if q.Start != nil {
		result, err = store.Neighbourhood(s.registry, *q.Start, q.Depth, q.Limit, edges, lookup)
	} else {
		result, err = store.WholeGraph(s.registry, q.Limit, edges, lookup)
	}
	if lookupErr != nil {
		return store.Result{}, lookupErr
	}
	return result, err
}

// Create implements store.Writer.
func (s *Store) Create(ctx context.Context, n *schema.Node) error {
	persisted, err := store.Persisted(s.registry, n)
	if err != nil {
		return err
	}
	raw, err := encode(persisted.Properties)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// The insert is the existence check, so a second process writing the same
	// file cannot slip in between.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (label, pp, properties) VALUES (?, ?, ?)
		 ON CONFLICT(label, pp) DO NOTHING`,
		persisted.Label(), persisted.PP(), raw)
	if err != nil {
		return fmt.Errorf("sqlite: create %s: %w", persisted.Label(), err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: create %s: %w", persisted.Label(), err)
	}
	if inserted == 0 {
		return fmt.Errorf("%w: %s %q", store.ErrConflict, persisted.Label(), persisted.PP())
	}
	return nil
}

// Merge implements store.Writer.
func (s *Store) Merge(ctx context.Context, n *schema.Node) error {
	persisted, err := store.Persisted(s.registry, n)
	if err != nil {
		return err
	}
	raw, err := encode(persisted.Properties)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO nodes (label, pp, properties) VALUES (?, ?, ?)
		 ON CONFLICT(label, pp) DO UPDATE SET properties = excluded.properties`,
		persisted.Label(), persisted.PP(), raw)
	if err != nil {
		return fmt.Errorf("sqlite: merge %s: %w", persisted.Label(), err)
	}
	return nil
}

// MergeRelationship implements store.Writer.
func (s *Store) MergeRelationship(ctx context.Context, rel *schema.Relationship) error {
	if rel == nil || rel.Type == nil || rel.Source == nil || rel.Target == nil {
		return fmt.Errorf("sqlite: merge relationship: incomplete relationship")
	}
	if _, ok := s.registry.RelationshipType(rel.Tag()); !ok {
		return fmt.Errorf("%w: relationship %s", store.ErrUnknownType, rel.Tag())
	}
	edge := store.EdgeOf(rel)
	raw, err := encode(edge.Properties)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: merge relationship %s: %w", edge.Tag, err)
	}
	defer tx.Rollback()

	for _, ref := range []store.NodeRef{edge.Source, edge.Target} {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM nodes WHERE label = ? AND pp = ?`, ref.Label, ref.PP).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: merge relationship %s: %w", edge.Tag, err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s %q", store.ErrNotFound, ref.Label, ref.PP)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO relationships (tag, source_label, source_pp, target_label, target_pp, properties)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tag, source_label, source_pp, target_label, target_pp)
		 DO UPDATE SET properties = excluded.properties`,
		edge.Tag, edge.Source.Label, edge.Source.PP, edge.Target.Label, edge.Target.PP, raw)
	if err != nil {
		return fmt.Errorf("sqlite: merge relationship %s: %w", edge.Tag, err)
	}
	return tx.Commit()
}

func (s *Store) node(ctx context.Context, ref store.NodeRef) (*schema.Node, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT properties FROM nodes WHERE label = ? AND pp = ?`, ref.Label, ref.PP).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %q", store.ErrNotFound, ref.Label, ref.PP)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: match %s: %w", ref.Label, err)
	}
	return s.decodeNode(ref.Label, raw)
}

func (s *Store) decodeNode(label, raw string) (*schema.Node, error) {
	t, ok := s.registry.NodeType(label)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownType, label)
	}
	props, err := schema.DecodeProperties([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", label, err)
	}
	return &schema.Node{Type: t, Properties: props}, nil
}

func (s *Store) edges(ctx context.Context, where string, args ...any) ([]store.Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, source_label, source_pp, target_label, target_pp, properties FROM relationships `+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query relationships: %w", err)
	}
	defer rows.Close()

	out := make([]store.Edge, 0)
	for rows.Next() {
		var e store.Edge
		var raw string
		if err := rows.Scan(&e.Tag, &e.Source.Label, &e.Source.PP, &e.Target.Label, &e.Target.PP, &raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan relationship: %w", err)
		}
		if e.Properties, err = schema.DecodeProperties([]byte(raw)); err != nil {
			return nil, fmt.Errorf("sqlite: relationship %s: %w", e.Tag, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	store.SortEdges(out)
	return out, nil
}

func (s *Store) relationships(ctx context.Context, edges []store.Edge) ([]*schema.Relationship, error) {
	out := make([]*schema.Relationship, 0, len(edges))
	for _, e := range edges {
		source, err := s.node(ctx, e.Source)
		if err != nil {
			return nil, err
		}
		target, err := s.node(ctx, e.Target)
		if err != nil {
			return nil, err
		}
		rel, err := store.Relationship(s.registry, e, source, target)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

func encode(props map[string]any) (string, error) {
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode properties: %w", err)
	}
	return string(raw), nil
}

// bounds maps a non-positive limit to SQLite's unbounded LIMIT -1.
func bounds(limit, skip int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
