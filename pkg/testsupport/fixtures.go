// Package testsupport holds fixtures shared by package tests: a small page and
// author ontology, a seeded in-memory store and HTTP helpers.
package testsupport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/store/memory"
)

// Ontology is the fixture type set.
type Ontology struct {
	Page       *schema.NodeType
	Author     *schema.NodeType
	AuthoredBy *schema.RelationshipType
	Registry   *schema.Registry
}

// NewOntology registers Page{slug, title, description?, content} and
// Author{name} with AUTHORED_BY(Page->Author, comments?).
func NewOntology() *Ontology {
	page := schema.MustNodeType("Page", "slug",
		schema.WithFields(
			schema.String("title"),
			schema.String("description", schema.Optional()),
			schema.String("slug"),
			schema.String("content"),
		),
		schema.WithDisplay("title"),
	)
	author := schema.MustNodeType("Author", "name",
		schema.WithFields(schema.String("name")),
	)
	authoredBy := schema.MustRelationshipType("AUTHORED_BY", page, author,
		schema.String("comments", schema.Optional()),
	)
	reg := schema.NewRegistry()
	reg.MustRegisterNode(page, author)
	reg.MustRegisterRelationship(authoredBy)
	return &Ontology{Page: page, Author: author, AuthoredBy: authoredBy, Registry: reg}
}

// MustNode constructs a node or fails the test.
func MustNode(t testing.TB, nt *schema.NodeType, values map[string]any) *schema.Node {
	t.Helper()
	n, err := nt.New(values)
	if err != nil {
		t.Fatalf("new %s: %v", nt.Label, err)
	}
	return n
}

// Seed merges two pages and two authors: page-1 is authored by Author 1,
// page-2 by both authors.
func (o *Ontology) Seed(t testing.TB, st store.Writer) {
	t.Helper()
	ctx := context.Background()
	pages := []*schema.Node{
		MustNode(t, o.Page, map[string]any{"slug": "page-1", "title": "Page 1", "content": "# First\n\nHello."}),
		MustNode(t, o.Page, map[string]any{"slug": "page-2", "title": "Page 2", "description": "The second page", "content": "Second."}),
	}
	authors := []*schema.Node{
		MustNode(t, o.Author, map[string]any{"name": "Author 1"}),
		MustNode(t, o.Author, map[string]any{"name": "Author 2"}),
	}
	for _, n := range append(pages, authors...) {
		if err := st.Merge(ctx, n); err != nil {
			t.Fatalf("merge %s: %v", n, err)
		}
	}
	for _, rel := range []*schema.Relationship{
		{Type: o.AuthoredBy, Source: pages[0], Target: authors[0]},
		{Type: o.AuthoredBy, Source: pages[1], Target: authors[0]},
		{Type: o.AuthoredBy, Source: pages[1], Target: authors[1], Properties: map[string]any{"comments": "editor"}},
	} {
		if err := st.MergeRelationship(ctx, rel); err != nil {
			t.Fatalf("merge %s: %v", rel.Tag(), err)
		}
	}
}

// SeededStore returns an in-memory store holding the Seed data.
func (o *Ontology) SeededStore(t testing.TB) *memory.Store {
	t.Helper()
	st := memory.New(o.Registry)
	o.Seed(t, st)
	return st
}

// Do serves one request against h. A non-nil form is posted url-encoded.
func Do(t testing.TB, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// AssertContains fails unless body contains every want.
func AssertContains(t testing.TB, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
