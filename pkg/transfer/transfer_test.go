package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"

	"github.com/goliatone/go-autograph/pkg/api"
	"github.com/goliatone/go-autograph/pkg/manager"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store/memory"
)

var (
	dummy = schema.MustNodeType("DummyNode", "name",
		schema.WithFields(
			schema.String("name"),
			schema.String("description", schema.Optional()),
		),
	)
	dummyRel = schema.MustRelationshipType("DUMMY_RELATIONSHIP", dummy, dummy)
)

func registry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.MustRegisterNode(dummy)
	reg.MustRegisterRelationship(dummyRel)
	return reg
}

func newFS(t *testing.T, files map[string]string) hackpadfs.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	if err != nil {
		t.Fatalf("mem.NewFS: %v", err)
	}
	for name, content := range files {
		if i := strings.LastIndex(name, "/"); i > 0 {
			if err := hackpadfs.MkdirAll(fsys, name[:i], 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", name, err)
			}
		}
		if err := hackpadfs.WriteFullFile(fsys, name, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fsys
}

const markdownNode = `---
LABEL: DummyNode
BODY_PROPERTY: description
name: testimport
---

This is the description of the test node.

`

func TestImportMarkdown(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := memory.New(reg)
	fsys := newFS(t, map[string]string{
		"content/test.md":      markdownNode,
		"content/notes.txt":    "ignored",
		"content/deep/more.md": "---\nLABEL: DummyNode\nname: nested\n---\n",
	})

	report, err := NewImporter(reg, st).Import(ctx, fsys, "content", FormatMarkdown)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Files != 2 || report.Nodes != 2 || !report.Written {
		t.Fatalf("report = %+v", report)
	}

	n, err := st.Match(ctx, dummy, "testimport")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got, _ := n.Get("description"); got != "This is the description of the test node." {
		t.Fatalf("description = %q", got)
	}
	if _, err := st.Match(ctx, dummy, "nested"); err != nil {
		t.Fatalf("nested file not imported: %v", err)
	}
}

func TestImportValidateOnly(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := memory.New(reg)
	fsys := newFS(t, map[string]string{"test.md": markdownNode})

	report, err := NewImporter(reg, st, WithValidateOnly(true)).Import(ctx, fsys, ".", FormatMarkdown)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Nodes != 1 || report.Written {
		t.Fatalf("report = %+v", report)
	}
	if count, _ := st.Count(ctx, dummy); count != 0 {
		t.Fatalf("count = %d after validation", count)
	}
}

func TestImportRejectsUnmappedRecords(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := memory.New(reg)
	fsys := newFS(t, map[string]string{
		"a.md": "---\nBODY_PROPERTY: description\nname: testimport\n---\nbody\n",
		"b.md": "---\nLABEL: Unknown\nname: x\n---\n",
		"c.md": "no front matter",
		"d.md": "---\nLABEL: DummyNode\nname: fine\n---\n",
	})

	report, err := NewImporter(reg, st, WithValidateOnly(true)).Import(ctx, fsys, ".", FormatMarkdown)
	if !errors.Is(err, ErrSchemaMapping) {
		t.Fatalf("err = %v, want ErrSchemaMapping", err)
	}
	var files []string
	for _, rerr := range report.Errors {
		files = append(files, rerr.File)
	}
	if diff := cmp.Diff([]string{"a.md", "b.md", "c.md"}, files); diff != "" {
		t.Fatalf("rejected files (-want +got):\n%s", diff)
	}

	var rerr *RecordError
	if !errors.As(report.Errors[0], &rerr) || rerr.Index != 0 {
		t.Fatalf("first error = %#v", report.Errors[0])
	}

	if _, err := NewImporter(reg, st).Import(ctx, fsys, ".", FormatMarkdown); err == nil {
		t.Fatalf("expected the import to fail")
	}
	if count, _ := st.Count(ctx, dummy); count != 0 {
		t.Fatalf("count = %d, a failed import must not write", count)
	}
}

func TestImportYAMLDocuments(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := memory.New(reg)
	fsys := newFS(t, map[string]string{
		"nodes.yml": `LABEL: DummyNode
name: foo
---
- LABEL: DummyNode
  name: bar
  description: second
- RELATIONSHIP_TYPE: DUMMY_RELATIONSHIP
  source: foo
  target: bar
`,
	})

	report, err := NewImporter(reg, st).Import(ctx, fsys, ".", FormatYAML)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Nodes != 2 || report.Relationships != 1 {
		t.Fatalf("report = %+v", report)
	}
	foo, _ := st.Match(ctx, dummy, "foo")
	rels, err := st.Outgoing(ctx, foo)
	if err != nil || len(rels) != 1 || rels[0].Target.PP() != "bar" {
		t.Fatalf("outgoing = %v, %v", rels, err)
	}
}

func TestImportUnresolvedEndpoint(t *testing.T) {
	reg := registry()
	fsys := newFS(t, map[string]string{
		"rels.json": `[{"RELATIONSHIP_TYPE": "DUMMY_RELATIONSHIP", "source": "foo", "target": "ghost"}]`,
		"foo.json":  `{"LABEL": "DummyNode", "name": "foo"}`,
	})
	report, err := NewImporter(reg, memory.New(reg)).Import(context.Background(), fsys, ".", FormatJSON)
	if !errors.Is(err, ErrSchemaMapping) {
		t.Fatalf("err = %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].File != "rels.json" {
		t.Fatalf("errors = %v", report.Errors)
	}
}

func seed(t *testing.T, reg *schema.Registry) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New(reg)
	foo, _ := dummy.New(map[string]any{"name": "foo", "description": "foo CONTENT"})
	bar, _ := dummy.New(map[string]any{"name": "bar"})
	for _, n := range []*schema.Node{foo, bar} {
		if err := st.Merge(ctx, n); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	if err := st.MergeRelationship(ctx, &schema.Relationship{Type: dummyRel, Source: foo, Target: bar}); err != nil {
		t.Fatalf("MergeRelationship: %v", err)
	}
	return st
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := seed(t, reg)
	fsys := newFS(t, nil)

	written, err := Export(ctx, fsys, "out", reg, st)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []string{"out/DummyNode.nodes.json", "out/DUMMY_RELATIONSHIP.relationships.json"}
	if diff := cmp.Diff(want, written); diff != "" {
		t.Fatalf("written (-want +got):\n%s", diff)
	}

	raw, err := hackpadfs.ReadFile(fsys, "out/DummyNode.nodes.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var nodes []map[string]any
	if err := json.Unmarshal(raw, &nodes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var names []string
	for _, n := range nodes {
		names = append(names, n["name"].(string))
	}
	if diff := cmp.Diff([]string{"bar", "foo"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}

	fresh := memory.New(reg)
	report, err := NewImporter(reg, fresh).Import(ctx, fsys, "out", FormatJSON)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if report.Nodes != 2 || report.Relationships != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestExportSkipsEmptyTypes(t *testing.T) {
	reg := registry()
	written, err := Export(context.Background(), newFS(t, nil), ".", reg, memory.New(reg))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(written) != 0 {
		t.Fatalf("written = %v", written)
	}
}

func TestFreeze(t *testing.T) {
	ctx := context.Background()
	reg := registry()
	st := seed(t, reg)
	dummies := api.New("v1", &api.Resource{
		Type:        dummy,
		Name:        "dummies",
		Description: "Dummy nodes",
		Related:     map[string]api.RelatedFunc{"dum-dummies": api.Neighbours("DUMMY_RELATIONSHIP")},
	})
	m, err := manager.New(manager.WithRegistry(reg), manager.WithStore(st), manager.WithAutograph(), manager.WithAPI(dummies))
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}
	fsys := newFS(t, nil)

	written, err := Freeze(ctx, fsys, "site", m.Handler(), m.Routes(), st)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	for _, name := range []string{
		"site/autograph/index.html",
		"site/autograph/DummyNode/index.html",
		"site/autograph/DummyNode/node/foo/index.html",
		"site/api/v1/dummies.json",
		"site/api/v1/dummies/foo.json",
		"site/api/v1/dummies/foo/dum-dummies.json",
		"site/api/v1/openapi.json",
	} {
		found := false
		for _, w := range written {
			found = found || w == name
		}
		if !found {
			t.Fatalf("%s not frozen; wrote %v", name, written)
		}
	}

	page, err := hackpadfs.ReadFile(fsys, "site/autograph/DummyNode/node/foo/index.html")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(page), "foo CONTENT") {
		t.Fatalf("frozen page missing content")
	}
}

func TestFreezePath(t *testing.T) {
	tests := []struct {
		url  string
		want string
		err  bool
	}{
		{url: "/autograph/", want: "out/autograph/index.html"},
		{url: "/api/v1/pages.json", want: "out/api/v1/pages.json"},
		{url: "/autograph/Team/node/a%20b/", want: "out/autograph/Team/node/a b/index.html"},
		{url: "/autograph/Team/node/%2E/", want: "out/autograph/Team/node/%2E/index.html"},
		{url: "/autograph/Team/node/%2E%2E/update/", want: "out/autograph/Team/node/%2E%2E/update/index.html"},
		{url: "/x/../../../etc/", err: true},
	}
	for _, tt := range tests {
		got, err := freezePath("out", tt.url)
		if tt.err {
			if err == nil {
				t.Fatalf("freezePath(%q) = %q, want error", tt.url, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("freezePath(%q) = %q, %v; want %q", tt.url, got, err, tt.want)
		}
	}
}
