// Package storetest holds the behavioural suite every store backend runs.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// Factory opens an empty store over reg.
type Factory func(t *testing.T, reg *schema.Registry) store.Store

// Run executes the suite against the backend created by factory.
func Run(t *testing.T, factory Factory) {
	suite.Run(t, &Suite{factory: factory})
}

// Suite exercises the store.Store contract.
type Suite struct {
	suite.Suite
	factory Factory

	ctx      context.Context
	registry *schema.Registry
	person   *schema.NodeType
	page     *schema.NodeType
	knows    *schema.RelationshipType
	authored *schema.RelationshipType
	store    store.Store
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.person = schema.MustNodeType("Person", "email",
		schema.WithFields(
			schema.Email("email"),
			schema.String("name"),
			schema.Int("age", schema.Optional()),
			schema.EnumList("tags", schema.Choices("a", "b", "c"), schema.Optional()),
		),
		schema.WithDisplay("name"),
	)
	s.page = schema.MustNodeType("Page", "slug",
		schema.WithFields(schema.String("slug"), schema.String("title")),
		schema.WithDisplay("title"),
	)
	s.knows = schema.MustRelationshipType("KNOWS", s.person, s.person)
	s.authored = schema.MustRelationshipType("AUTHORED", s.person, s.page, schema.String("comments", schema.Optional()))

	s.registry = schema.NewRegistry()
	s.registry.MustRegisterNode(s.person, s.page)
	s.registry.MustRegisterRelationship(s.knows, s.authored)

	s.store = s.factory(s.T(), s.registry)
	s.Require().NotNil(s.store)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close())
	}
}

func (s *Suite) newPerson(email, name string, extra map[string]any) *schema.Node {
	values := map[string]any{"email": email, "name": name}
	for k, v := range extra {
		values[k] = v
	}
	n, err := s.person.New(values)
	s.Require().NoError(err)
	return n
}

func (s *Suite) newPage(slug, title string) *schema.Node {
	n, err := s.page.New(map[string]any{"slug": slug, "title": title})
	s.Require().NoError(err)
	return n
}

func (s *Suite) link(rt *schema.RelationshipType, source, target *schema.Node, values map[string]any) {
	rel, err := rt.New(source, target, values)
	s.Require().NoError(err)
	s.Require().NoError(s.store.MergeRelationship(s.ctx, rel))
}

func (s *Suite) TestMergeAndMatch() {
	ada := s.newPerson("ada@example.com", "Ada", map[string]any{"age": 36, "tags": []string{"a", "b"}})
	s.Require().NoError(s.store.Merge(s.ctx, ada))

	got, err := s.store.Match(s.ctx, s.person, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("Person", got.Label())
	s.Equal("Ada", got.String())
	s.Equal(int64(36), got.Properties["age"])
	s.Equal([]string{"a", "b"}, got.Properties["tags"])
}

func (s *Suite) TestMatchMissing() {
	_, err := s.store.Match(s.ctx, s.person, "nobody@example.com")
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *Suite) TestMergeIsIdempotent() {
	ada := s.newPerson("ada@example.com", "Ada", nil)
	s.Require().NoError(s.store.Merge(s.ctx, ada))
	s.Require().NoError(s.store.Merge(s.ctx, ada))

	count, err := s.store.Count(s.ctx, s.person)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestMergeReplacesProperties() {
	s.Require().NoError(s.store.Merge(s.ctx, s.newPerson("ada@example.com", "Ada", map[string]any{"age": 36})))
	s.Require().NoError(s.store.Merge(s.ctx, s.newPerson("ada@example.com", "Ada Lovelace", nil)))

	got, err := s.store.Match(s.ctx, s.person, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("Ada Lovelace", got.String())
	_, hasAge := got.Properties["age"]
	s.False(hasAge)
}

func (s *Suite) TestMergeProjectsCompositeNodes() {
	composite, err := s.person.Extend(schema.String("author"))
	s.Require().NoError(err)
	n, err := composite.New(map[string]any{"email": "ada@example.com", "name": "Ada", "author": "x"})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Merge(s.ctx, n))

	got, err := s.store.Match(s.ctx, s.person, "ada@example.com")
	s.Require().NoError(err)
	s.Same(s.person, got.Type)
	_, leaked := got.Properties["author"]
	s.False(leaked)
}

func (s *Suite) TestMergeRejectsUnregisteredLabels() {
	other := schema.MustNodeType("Ghost", "id", schema.WithFields(schema.String("id")))
	n, err := other.New(map[string]any{"id": "boo"})
	s.Require().NoError(err)
	err = s.store.Merge(s.ctx, n)
	s.True(errors.Is(err, store.ErrUnknownType), "got %v", err)
}

func (s *Suite) TestCreateConflict() {
	ada := s.newPerson("ada@example.com", "Ada", nil)
	s.Require().NoError(s.store.Create(s.ctx, ada))
	err := s.store.Create(s.ctx, s.newPerson("ada@example.com", "Someone Else", nil))
	s.True(errors.Is(err, store.ErrConflict), "got %v", err)

	got, err := s.store.Match(s.ctx, s.person, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("Ada", got.String())
}

func (s *Suite) TestMatchAllOrderAndPaging() {
	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		s.Require().NoError(s.store.Merge(s.ctx, s.newPerson(email, email, nil)))
	}
	s.Require().NoError(s.store.Merge(s.ctx, s.newPage("home", "Home")))

	all, err := s.store.MatchAll(s.ctx, s.person, 0, 0)
	s.Require().NoError(err)
	s.Equal([]string{"a@example.com", "b@example.com", "c@example.com"}, pps(all))

	page, err := s.store.MatchAll(s.ctx, s.person, 1, 1)
	s.Require().NoError(err)
	s.Equal([]string{"b@example.com"}, pps(page))

	beyond, err := s.store.MatchAll(s.ctx, s.person, 10, 5)
	s.Require().NoError(err)
	s.Empty(beyond)

	count, err := s.store.Count(s.ctx, s.page)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *Suite) TestMergeRelationshipNeedsEndpoints() {
	ada := s.newPerson("ada@example.com", "Ada", nil)
	home := s.newPage("home", "Home")
	s.Require().NoError(s.store.Merge(s.ctx, ada))

	rel, err := s.authored.New(ada, home, nil)
	s.Require().NoError(err)
	err = s.store.MergeRelationship(s.ctx, rel)
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *Suite) TestRelationshipsAndOutgoing() {
	ada := s.newPerson("ada@example.com", "Ada", nil)
	bob := s.newPerson("bob@example.com", "Bob", nil)
	home := s.newPage("home", "Home")
	for _, n := range []*schema.Node{ada, bob, home} {
		s.Require().NoError(s.store.Merge(s.ctx, n))
	}
	s.link(s.authored, ada, home, map[string]any{"comments": "first"})
	s.link(s.authored, ada, home, map[string]any{"comments": "second"})
	s.link(s.knows, ada, bob, nil)
	s.link(s.knows, bob, ada, nil)

	authored, err := s.store.MatchRelationships(s.ctx, s.authored, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(authored, 1)
	s.Equal("second", authored[0].Properties["comments"])
	s.Equal("home", authored[0].Target.PP())

	out, err := s.store.Outgoing(s.ctx, ada)
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal("AUTHORED", out[0].Tag())
	s.Equal("KNOWS", out[1].Tag())
	s.Equal("Bob", out[1].Target.String())

	none, err := s.store.Outgoing(s.ctx, home)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestRunQueryNeighbourhood() {
	a := s.newPerson("a@example.com", "A", nil)
	b := s.newPerson("b@example.com", "B", nil)
	c := s.newPerson("c@example.com", "C", nil)
	d := s.newPerson("d@example.com", "D", nil)
	for _, n := range []*schema.Node{a, b, c, d} {
		s.Require().NoError(s.store.Merge(s.ctx, n))
	}
	s.link(s.knows, a, b, nil)
	s.link(s.knows, c, b, nil)
	s.link(s.knows, c, d, nil)

	start := store.Ref(a)
	one, err := s.store.RunQuery(s.ctx, store.Query{Start: &start, Depth: 1})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"a@example.com", "b@example.com"}, pps(one.Nodes))
	s.Len(one.Relationships, 1)

	two, err := s.store.RunQuery(s.ctx, store.Query{Start: &start, Depth: 2})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"a@example.com", "b@example.com", "c@example.com"}, pps(two.Nodes))
	s.Len(two.Relationships, 2)

	capped, err := s.store.RunQuery(s.ctx, store.Query{Start: &start, Depth: 3, Limit: 1})
	s.Require().NoError(err)
	s.Len(capped.Relationships, 1)
}

func (s *Suite) TestRunQueryIsolatedAndMissingStart() {
	a := s.newPerson("a@example.com", "A", nil)
	s.Require().NoError(s.store.Merge(s.ctx, a))

	start := store.Ref(a)
	res, err := s.store.RunQuery(s.ctx, store.Query{Start: &start, Depth: 2})
	s.Require().NoError(err)
	s.Equal([]string{"a@example.com"}, pps(res.Nodes))
	s.Empty(res.Relationships)

	missing := store.NodeRef{Label: "Person", PP: "nobody@example.com"}
	_, err = s.store.RunQuery(s.ctx, store.Query{Start: &missing})
	s.True(errors.Is(err, store.ErrNotFound), "got %v", err)
}

func (s *Suite) TestRunQueryWholeGraph() {
	a := s.newPerson("a@example.com", "A", nil)
	b := s.newPerson("b@example.com", "B", nil)
	home := s.newPage("home", "Home")
	lonely := s.newPage("lonely", "Lonely")
	for _, n := range []*schema.Node{a, b, home, lonely} {
		s.Require().NoError(s.store.Merge(s.ctx, n))
	}
	s.link(s.knows, a, b, nil)
	s.link(s.authored, a, home, nil)

	res, err := s.store.RunQuery(s.ctx, store.Query{})
	s.Require().NoError(err)
	s.Len(res.Relationships, 2)
	s.ElementsMatch([]string{"a@example.com", "b@example.com", "home"}, pps(res.Nodes))

	limited, err := s.store.RunQuery(s.ctx, store.Query{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited.Relationships, 1)
	s.Equal("AUTHORED", limited.Relationships[0].Tag())
}

func pps(nodes []*schema.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.PP())
	}
	return out
}
