package demo

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-autograph/pkg/api"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

// DocsURL is the list page of the docs viewset.
const DocsURL = "/docs/"

// DocsViewset serves pages under /docs/.
func DocsViewset() *viewset.Viewset {
	return viewset.New(PageType,
		viewset.WithName("NeontologyPageViewset"),
		viewset.WithTitle("pages"),
		viewset.WithSlug("docs"),
	)
}

// DocsListView lists every page as a card.
func DocsListView(vs *viewset.Viewset) *views.ListView {
	return &views.ListView{
		Viewset: vs,
		Sections: []views.Section{{
			Name: "pages",
			Body: func(r *views.Request) ([]component.Component, error) {
				nodes, err := r.Env.Store.MatchAll(r.Context(), r.Viewset.Type, 0, 0)
				if err != nil {
					return nil, err
				}
				return views.Components(r.Viewset.NodesToCards(nodes)), nil
			},
		}},
		Elements: []views.Element{
			views.TextElement(component.ElementTitle, "Documentation Pages"),
		},
	}
}

// DocsItemView renders a page: its authors, then its Markdown content.
func DocsItemView(vs *viewset.Viewset) *views.ItemView {
	return &views.ItemView{
		Viewset: vs,
		Sections: []views.Section{
			{
				Name: "authors",
				Body: func(r *views.Request) ([]component.Component, error) {
					names, err := authorNames(r.Context(), r.Env.Store, r.Node)
					if err != nil || len(names) == 0 {
						return nil, err
					}
					return views.Components(component.Text{Text: "Author(s): " + strings.Join(names, ", ")}), nil
				},
			},
			{
				Name: "content",
				Body: func(r *views.Request) ([]component.Component, error) {
					content, _ := r.Node.Get("content")
					return views.Components(component.Markdown{Text: schema.FormatValue(content)}), nil
				},
			},
		},
	}
}

// authorNames lists the names of the page's authors, sorted.
func authorNames(ctx context.Context, st store.Reader, page *schema.Node) ([]string, error) {
	rels, err := st.Outgoing(ctx, page)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, rel := range rels {
		if rel.Tag() == AuthoredBy.Type {
			names = append(names, rel.Target.PP())
		}
	}
	slices.Sort(names)
	return names, nil
}

// PagesAPI exposes pages with their authors as a related resource.
func PagesAPI(version string) *api.API {
	return api.New(version, &api.Resource{
		Type:        PageType,
		Name:        "pages",
		Description: "API endpoints for documentation pages.",
		Related: map[string]api.RelatedFunc{
			"authors": api.Neighbours(AuthoredBy.Type),
		},
	})
}
