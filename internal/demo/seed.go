package demo

import (
	"context"
	"fmt"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

var seedAuthors = []string{"Ada Lovelace", "Alan Turing"}

var seedPages = []struct {
	values  map[string]any
	authors []string
}{
	{
		values: map[string]any{
			"slug":        "getting-started",
			"title":       "Getting Started",
			"description": "Install the command and serve the site.",
			"content":     "# Getting Started\n\nRun `autograph serve` and open the home page.",
		},
		authors: []string{"Ada Lovelace"},
	},
	{
		values: map[string]any{
			"slug":        "bulk-data",
			"title":       "Bulk Data",
			"description": "Import and export node files.",
			"content":     "# Bulk Data\n\nUse `autograph import` with a directory of Markdown, YAML or JSON files.",
		},
		authors: []string{"Ada Lovelace", "Alan Turing"},
	},
}

// Seed merges the sample pages and authors into st. Seeding twice leaves the
// same data.
func Seed(ctx context.Context, st store.Writer) error {
	authors := make(map[string]*schema.Node, len(seedAuthors))
	for _, name := range seedAuthors {
		n, err := AuthorType.New(map[string]any{"name": name})
		if err != nil {
			return err
		}
		if err := st.Merge(ctx, n); err != nil {
			return fmt.Errorf("demo: seed author %q: %w", name, err)
		}
		authors[name] = n
	}
	for _, p := range seedPages {
		page, err := PageType.New(p.values)
		if err != nil {
			return err
		}
		if err := st.Merge(ctx, page); err != nil {
			return fmt.Errorf("demo: seed page %q: %w", page.PP(), err)
		}
		for _, name := range p.authors {
			rel := &schema.Relationship{Type: AuthoredBy, Source: page, Target: authors[name]}
			if err := st.MergeRelationship(ctx, rel); err != nil {
				return fmt.Errorf("demo: seed authorship %q: %w", page.PP(), err)
			}
		}
	}
	return nil
}
