package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-autograph/internal/demo"
	"github.com/goliatone/go-autograph/pkg/prompt"
	"github.com/goliatone/go-autograph/pkg/store/sqlite"
)

const pageFile = `---
LABEL: NeontologyPage
BODY_PROPERTY: content
slug: imported
title: Imported Page
---
# Imported

Hello from a file.
`

const authorFile = `---
LABEL: NeontologyAuthor
name: Grace Hopper
---
`

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestUsage(t *testing.T) {
	if code, _, stderr := runCmd(t); code != 2 || !strings.Contains(stderr, "usage:") {
		t.Fatalf("no args: code %d, stderr %q", code, stderr)
	}
	if code, _, _ := runCmd(t, "bogus"); code != 2 {
		t.Fatalf("unknown command: code %d", code)
	}
	if code, _, _ := runCmd(t, "import"); code != 2 {
		t.Fatalf("import without dir: code %d", code)
	}
	if code, _, _ := runCmd(t, "import", t.TempDir(), "csv"); code != 2 {
		t.Fatalf("unknown format: code %d", code)
	}
}

func TestImportThenExport(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "graph.db")
	in := filepath.Join(root, "in")
	writeFiles(t, in, map[string]string{
		"pages/imported.md": pageFile,
		"authors/grace.md":  authorFile,
	})

	code, stdout, stderr := runCmd(t, "import", in, "md", "-store", "sqlite", "-dsn", db)
	if code != 0 {
		t.Fatalf("import: code %d, stderr %s", code, stderr)
	}
	if !strings.Contains(stdout, "imported 2 nodes and 0 relationships from 2 files") {
		t.Fatalf("import output %q", stdout)
	}

	st, err := sqlite.Open(demo.Registry(), db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	page, err := st.Match(context.Background(), demo.PageType, "imported")
	st.Close()
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if content, _ := page.Get("content"); content != "# Imported\n\nHello from a file." {
		t.Fatalf("content = %q", content)
	}

	out := filepath.Join(root, "out")
	if code, _, stderr := runCmd(t, "export", out, "-store", "sqlite", "-dsn", db); code != 0 {
		t.Fatalf("export: code %d, stderr %s", code, stderr)
	}
	raw, err := os.ReadFile(filepath.Join(out, "NeontologyPage.nodes.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), `"slug": "imported"`) {
		t.Fatalf("export missing page:\n%s", raw)
	}
}

func TestImportValidateOnlyWritesNothing(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "graph.db")
	writeFiles(t, root, map[string]string{"in/grace.md": authorFile})

	code, stdout, _ := runCmd(t, "import", filepath.Join(root, "in"), "-validate-only", "-store", "sqlite", "-dsn", db)
	if code != 0 || !strings.Contains(stdout, "validated 1 nodes") {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	st, err := sqlite.Open(demo.Registry(), db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	if n, _ := st.Count(context.Background(), demo.AuthorType); n != 0 {
		t.Fatalf("authors = %d, want 0", n)
	}
}

func TestImportRejectsUnknownLabel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.md": authorFile,
		"b.md": "---\nLABEL: Unknown\nname: x\n---\n",
	})
	code, _, stderr := runCmd(t, "import", dir)
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "b.md") || !strings.Contains(stderr, "nothing written") {
		t.Fatalf("stderr %q", stderr)
	}
}

func TestFreeze(t *testing.T) {
	out := t.TempDir()
	code, stdout, stderr := runCmd(t, "freeze", out, "-seed")
	if code != 0 {
		t.Fatalf("freeze: code %d, stderr %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "froze ") {
		t.Fatalf("stdout %q", stdout)
	}
	for _, name := range []string{
		"index.html",
		"components/index.html",
		"docs/index.html",
		"docs/getting-started/index.html",
		"autograph/index.html",
		"api/v1/pages.json",
		"api/v1/pages/bulk-data/authors.json",
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "create-page")); err == nil {
		t.Fatalf("create form frozen")
	}
}

type scriptedDriver struct {
	prompt.Driver
	inputs []string
}

func (d *scriptedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }

func TestCreate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "graph.db")
	var stdout, stderr bytes.Buffer
	d := &scriptedDriver{inputs: []string{"Grace Hopper"}}
	code := create(context.Background(), []string{"NeontologyAuthor", "-store", "sqlite", "-dsn", db}, d, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("code %d, stderr %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `created NeontologyAuthor "Grace Hopper"`) {
		t.Fatalf("stdout %q", stdout.String())
	}

	d = &scriptedDriver{inputs: []string{"Grace Hopper"}}
	stderr.Reset()
	if code := create(context.Background(), []string{"NeontologyAuthor", "-store", "sqlite", "-dsn", db}, d, &stdout, &stderr); code != 1 {
		t.Fatalf("duplicate create: code %d", code)
	}
	if code := create(context.Background(), []string{"Nope"}, d, &stdout, &stderr); code != 2 {
		t.Fatalf("unknown label: code %d", code)
	}
}
