package viewset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store/memory"
)

var person = schema.MustNodeType("Person", "name",
	schema.WithFields(schema.String("name"), schema.String("bio", schema.Optional())),
)

func newPerson(t *testing.T, name string) *schema.Node {
	t.Helper()
	n, err := person.New(map[string]any{"name": name})
	if err != nil {
		t.Fatalf("new person: %v", err)
	}
	return n
}

func TestDefaultURLsAndNames(t *testing.T) {
	vs := New(person)

	checks := map[string]string{
		"list url":      vs.ListURL(),
		"item pattern":  vs.ItemURLPattern(),
		"endpoint":      vs.EndpointURLPattern("update/"),
		"list name":     vs.ListViewName(),
		"item name":     vs.ItemViewName(),
		"endpoint name": vs.EndpointViewName("update"),
		"description":   vs.ListDescription(),
	}
	want := map[string]string{
		"list url":      "/Person/",
		"item pattern":  "/Person/{pp}/",
		"endpoint":      "/Person/{pp}/update/",
		"list name":     "Viewset-Person-list",
		"item name":     "Viewset-Person-item",
		"endpoint name": "Viewset-Person-update-endpoint",
		"description":   "Find out more about Person",
	}
	if diff := cmp.Diff(want, checks); diff != "" {
		t.Fatalf("viewset values mismatch (-want +got):\n%s", diff)
	}
}

func TestOverridesAndParents(t *testing.T) {
	vs := New(person,
		WithName("Docs"),
		WithTitle("pages"),
		WithSlug("docs"),
		WithParents(Home, component.LinkData{URL: "/site/", Title: "Site"}),
		WithItemSegment("node"),
	)
	if got := vs.ListURL(); got != "/site/docs/" {
		t.Fatalf("list url = %q", got)
	}
	if got := vs.ItemURLPattern(); got != "/site/docs/node/{pp}/" {
		t.Fatalf("item pattern = %q", got)
	}
	if got := vs.ListViewName(); got != "Docs-Person-list" {
		t.Fatalf("list view name = %q", got)
	}
	if got := vs.ItemSubtitle(nil); got != "pages" {
		t.Fatalf("item subtitle = %q", got)
	}
}

func TestBaseURLFallsBackToRoot(t *testing.T) {
	vs := New(person, WithParents())
	if got := vs.ListURL(); got != "/Person/" {
		t.Fatalf("list url = %q", got)
	}
	vs = New(person, WithParents(component.LinkData{Title: "No URL"}))
	if got := vs.BaseURL(); got != "/" {
		t.Fatalf("base url = %q", got)
	}
}

func TestBreadcrumbs(t *testing.T) {
	vs := New(person)
	ada := newPerson(t, "Ada")

	list := vs.ListBreadcrumbs()
	wantList := []component.LinkData{Home, {Title: "Person"}}
	if diff := cmp.Diff(wantList, list); diff != "" {
		t.Fatalf("list breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	item := vs.ItemBreadcrumbs(ada)
	wantItem := []component.LinkData{Home, {URL: "/Person/", Title: "Person"}, {Title: "Ada"}}
	if diff := cmp.Diff(wantItem, item); diff != "" {
		t.Fatalf("item breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	endpoint := vs.EndpointBreadcrumbs(ada, "")
	wantEndpoint := []component.LinkData{
		Home,
		{URL: "/Person/", Title: "Person"},
		{URL: "/Person/Ada/", Title: "Ada"},
		{Title: "here"},
	}
	if diff := cmp.Diff(wantEndpoint, endpoint); diff != "" {
		t.Fatalf("endpoint breadcrumbs mismatch (-want +got):\n%s", diff)
	}

	if got := vs.EndpointBreadcrumbs(ada, "Edit"); got[len(got)-1].Title != "Edit" {
		t.Fatalf("endpoint crumb = %q", got[len(got)-1].Title)
	}
	if len(vs.Parents()) != 1 {
		t.Fatalf("breadcrumbs mutated the parent chain: %v", vs.Parents())
	}
}

func TestPrimaryPropertyRoundTrip(t *testing.T) {
	vs := New(person)

	cases := []string{
		"Ada",
		"a/b",
		"with space",
		"ünïcødé ✓",
		"100%",
		"q?x=1&y=2#frag",
		"{pp}",
		".",
		"..",
		"...",
	}
	for _, pp := range cases {
		t.Run(pp, func(t *testing.T) {
			var got string
			mux := http.NewServeMux()
			mux.HandleFunc("GET "+vs.ItemURLPattern()+"{$}", func(w http.ResponseWriter, r *http.Request) {
				got = r.PathValue("pp")
			})

			target := vs.PPToURL(pp)
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s: status %d", target, rec.Code)
			}
			if got != pp {
				t.Fatalf("PathValue = %q, want %q", got, pp)
			}

			escaped := target[len("/Person/") : len(target)-1]
			decoded, err := ExtractPP(escaped)
			if err != nil {
				t.Fatalf("ExtractPP: %v", err)
			}
			if decoded != pp {
				t.Fatalf("ExtractPP = %q, want %q", decoded, pp)
			}
		})
	}
}

func TestExtractPPRejectsBadEscapes(t *testing.T) {
	if _, err := ExtractPP("%zz"); err == nil {
		t.Fatalf("expected an error for a malformed escape")
	}
}

func TestNodeToCard(t *testing.T) {
	vs := New(person, WithItemDescription(func(n *schema.Node) string {
		bio, _ := n.Get("bio")
		s, _ := bio.(string)
		return s
	}))
	n, err := person.New(map[string]any{"name": "Ada Lovelace", "bio": "Analyst"})
	if err != nil {
		t.Fatalf("new person: %v", err)
	}

	card := vs.NodeToCard(n)
	if card.Title != "Ada Lovelace" || card.Subtitle != "Person" || card.Description != "Analyst" {
		t.Fatalf("unexpected card %+v", card.MetaData)
	}
	if len(card.Links) != 1 || card.Links[0].URL != "/Person/Ada%20Lovelace/" {
		t.Fatalf("unexpected card links %+v", card.Links)
	}
	if got := len(vs.NodesToCards([]*schema.Node{n, n}).Cards); got != 2 {
		t.Fatalf("cards = %d", got)
	}
}

func TestNodesToTableLinksItems(t *testing.T) {
	vs := New(person)
	table, err := vs.NodesToTable([]*schema.Node{newPerson(t, "a/b")}, component.FieldNodeString, "name")
	if err != nil {
		t.Fatalf("NodesToTable: %v", err)
	}
	if got := table.Rows[0][component.FieldNodeLink]; got != "/Person/a%2Fb/" {
		t.Fatalf("row link = %v", got)
	}
}

func TestMatchHelpers(t *testing.T) {
	ctx := context.Background()
	if _, err := New(person).MatchNodes(ctx, 0, 0); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}

	reg := schema.NewRegistry()
	reg.MustRegisterNode(person)
	st := memory.New(reg)
	for _, name := range []string{"Bob", "Ada"} {
		if err := st.Merge(ctx, newPerson(t, name)); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	vs := New(person, WithStore(st))

	nodes, err := vs.MatchNodes(ctx, 0, 0)
	if err != nil {
		t.Fatalf("MatchNodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0].PP() != "Ada" {
		t.Fatalf("unexpected nodes %v", nodes)
	}
	n, err := vs.MatchNode(ctx, "Bob")
	if err != nil || n.PP() != "Bob" {
		t.Fatalf("MatchNode = %v, %v", n, err)
	}
}
