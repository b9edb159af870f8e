package schema

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pageType(t *testing.T) *NodeType {
	t.Helper()
	nt, err := NewNodeType("Page", "slug",
		WithFields(
			String("slug"),
			String("title"),
			String("description", Optional()),
			Int("views", Default(int64(0))),
			EnumList("tags", Choices("go", "graph"), Optional()),
			Enum("status", Choices("draft", "published"), Optional()),
			Date("published_on", Optional()),
			Email("contact", Optional()),
			Secret("token", Optional()),
		),
		WithDisplay("title"),
	)
	if err != nil {
		t.Fatalf("NewNodeType: %v", err)
	}
	return nt
}

func TestNewNodeTypeRequiresPrimaryProperty(t *testing.T) {
	cases := []struct {
		name   string
		label  string
		pp     string
		fields []FieldDescriptor
		want   string
	}{
		{name: "missing label", pp: "id", fields: []FieldDescriptor{String("id")}, want: "primary label"},
		{name: "missing pp", label: "Page", fields: []FieldDescriptor{String("id")}, want: "primary property is required"},
		{name: "undeclared pp", label: "Page", pp: "slug", fields: []FieldDescriptor{String("id")}, want: "not a declared field"},
		{name: "optional pp", label: "Page", pp: "slug", fields: []FieldDescriptor{String("slug", Optional())}, want: "must be required"},
		{name: "duplicate", label: "Page", pp: "slug", fields: []FieldDescriptor{String("slug"), String("slug")}, want: "twice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewNodeType(tc.label, tc.pp, WithFields(tc.fields...))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestNodeTypeNewAppliesDefaultsAndCoerces(t *testing.T) {
	nt := pageType(t)
	node, err := nt.New(map[string]any{
		"slug":         "page-1",
		"title":        "Page 1",
		"tags":         []string{"go"},
		"status":       "draft",
		"published_on": "2024-03-01T10:00:00Z",
		"contact":      "someone@example.com",
		"unknown":      "ignored",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := map[string]any{
		"slug":         "page-1",
		"title":        "Page 1",
		"views":        int64(0),
		"tags":         []string{"go"},
		"status":       "draft",
		"published_on": "2024-03-01",
		"contact":      "someone@example.com",
	}
	if diff := cmp.Diff(want, node.Properties); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	if node.PP() != "page-1" || node.String() != "Page 1" {
		t.Fatalf("unexpected identity %q / %q", node.PP(), node.String())
	}
}

func TestNodeTypeNewReportsProblems(t *testing.T) {
	nt := pageType(t)
	_, err := nt.New(map[string]any{
		"slug":    "page-1",
		"views":   "many",
		"status":  "archived",
		"contact": "Someone <someone@example.com>",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	fields := make([]string, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		fields = append(fields, p.Field)
	}
	if diff := cmp.Diff([]string{"title", "views", "status", "contact"}, fields); diff != "" {
		t.Fatalf("problem fields mismatch (-want +got):\n%s", diff)
	}
}

func TestTidyTreatsEmptyStringsAsAbsent(t *testing.T) {
	got := Tidy(map[string]any{
		"name":        "x",
		"description": "",
		"tags":        []string{"", "a"},
		"empty":       []string{""},
	})
	want := map[string]any{"name": "x", "tags": []string{"a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Tidy mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValuesKeepsMultiSelectLists(t *testing.T) {
	nt := pageType(t)
	data := url.Values{"slug": {"a", "b"}, "tags": {"go", "graph"}}
	got := FormValues(data, nt.Fields)
	want := map[string]any{"slug": "a", "tags": []string{"go", "graph"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FormValues mismatch (-want +got):\n%s", diff)
	}
}

func TestSecretsAreHashedAndMasked(t *testing.T) {
	nt := pageType(t)
	node, err := nt.New(map[string]any{"slug": "s", "title": "T", "token": "hunter2"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stored, _ := node.Properties["token"].(string)
	if !IsHashedSecret(stored) {
		t.Fatalf("expected hashed secret, got %q", stored)
	}
	if !VerifySecret(stored, "hunter2") || VerifySecret(stored, "nope") {
		t.Fatalf("secret verification failed")
	}
	if got := node.Dump()["token"]; got != SecretMask {
		t.Fatalf("expected masked secret, got %v", got)
	}

	again, err := nt.New(node.Properties)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if again.Properties["token"] != stored {
		t.Fatalf("hashed secret was hashed twice")
	}
}

func TestExtendAndProject(t *testing.T) {
	nt := pageType(t)
	composite, err := nt.Extend(Enum("author", Choices("ann", "bob")))
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if len(composite.Fields) != len(nt.Fields)+1 {
		t.Fatalf("expected extra field, got %d fields", len(composite.Fields))
	}
	node, err := composite.New(map[string]any{"slug": "s", "title": "T", "author": "ann"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := node.As(nt)
	if _, ok := base.Properties["author"]; ok {
		t.Fatalf("projection kept ad hoc field")
	}
	if base.Label() != "Page" || base.PP() != "s" {
		t.Fatalf("projection lost identity")
	}
	if _, err := nt.Extend(String("slug")); err == nil {
		t.Fatalf("expected duplicate field error")
	}
}

func TestRelationshipTypeNew(t *testing.T) {
	page := pageType(t)
	author := MustNodeType("Author", "name", WithFields(String("name")))
	rt := MustRelationshipType("AUTHORED_BY", page, author, String("comments", Optional()))

	p, _ := page.New(map[string]any{"slug": "s", "title": "T"})
	a, _ := author.New(map[string]any{"name": "Ann"})

	rel, err := rt.New(p, a, map[string]any{"comments": "ok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rel.Tag() != "AUTHORED_BY" || rel.Properties["comments"] != "ok" {
		t.Fatalf("unexpected relationship %+v", rel)
	}
	if _, err := rt.New(a, p, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected endpoint mismatch, got %v", err)
	}
	if _, err := NewRelationshipType("BAD", page, author, String("source")); err == nil {
		t.Fatalf("expected reserved name error")
	}
}

func TestRegistry(t *testing.T) {
	page := pageType(t)
	author := MustNodeType("Author", "name", WithFields(String("name")))
	orphan := MustNodeType("Orphan", "id", WithFields(String("id")))

	reg := NewRegistry()
	reg.MustRegisterNode(page, author)
	reg.MustRegisterRelationship(
		MustRelationshipType("WRITTEN_BY", page, author),
		MustRelationshipType("AUTHORED_BY", page, author),
		MustRelationshipType("LINKS", orphan, page),
	)
	if err := reg.RegisterNode(page); err == nil {
		t.Fatalf("expected duplicate error")
	}

	labels := []string{}
	for _, nt := range reg.NodeTypes() {
		labels = append(labels, nt.Label)
	}
	if diff := cmp.Diff([]string{"Page", "Author"}, labels); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	bySource := reg.RelationshipTypesBySourceLabel()
	if diff := cmp.Diff([]string{"AUTHORED_BY", "WRITTEN_BY"}, bySource["Page"]); diff != "" {
		t.Fatalf("by source mismatch (-want +got):\n%s", diff)
	}
	if rt, ok := reg.RelationshipType("LINKS"); !ok || rt.Source.Label != "Orphan" {
		t.Fatalf("tag lookup failed")
	}
	if got := len(reg.Outgoing("Author")); got != 0 {
		t.Fatalf("expected no outgoing relationships for Author, got %d", got)
	}
}

func TestDescribe(t *testing.T) {
	nt := MustNodeType("Thing", "id", WithFields(
		String("id"),
		String("internal", Excluded(), Optional()),
		Enum("kind", Choices("a", "b"), Optional()),
		String("note", Optional()),
	))
	got := Describe(nt, "note")
	names := []string{}
	for _, field := range got {
		names = append(names, field.Name)
	}
	if diff := cmp.Diff([]string{"id", "kind"}, names); diff != "" {
		t.Fatalf("describe mismatch (-want +got):\n%s", diff)
	}
	if len(got[1].Options) != 2 {
		t.Fatalf("expected enum options")
	}
	if out := Describe(nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice for nil type")
	}
}

func TestDecodeProperties(t *testing.T) {
	got, err := DecodeProperties([]byte(`{"n": 3, "tags": ["a","b"], "s": "x"}`))
	if err != nil {
		t.Fatalf("DecodeProperties: %v", err)
	}
	want := map[string]any{"n": int64(3), "tags": []string{"a", "b"}, "s": "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"optional_prop":   "Optional Prop",
		"primaryProperty": "Primary Property",
		"name":            "Name",
		"relationship-2":  "Relationship 2",
	}
	for in, want := range cases {
		if got := TitleCase(in); got != want {
			t.Fatalf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
