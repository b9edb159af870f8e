package demo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-autograph/pkg/autograph"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/forms"
	"github.com/goliatone/go-autograph/pkg/manager"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

const (
	// CatalogueURL hosts the component catalogue.
	CatalogueURL = "/components/"
	// CreatePageURL hosts the page creation form.
	CreatePageURL = "/create-page/"
	// FooterText is shown on the catalogue page.
	FooterText = "Built with autograph."
)

// Options returns the manager options of the demo site, with the pages API
// under version. With freeze set the create-page form is left out, since a
// static copy cannot accept posts.
func Options(reg *schema.Registry, version string, freeze bool) []manager.Option {
	docs := DocsViewset()
	pages := []views.View{
		Home(freeze),
		Catalogue(),
		DocsListView(docs),
		DocsItemView(docs),
	}
	if !freeze {
		pages = append(pages, &CreatePage{Docs: docs})
	}
	return []manager.Option{
		manager.WithRegistry(reg),
		manager.WithAutograph(),
		manager.WithViews(pages...),
		manager.WithAPI(PagesAPI(version)),
	}
}

// Home is the landing page: a hero, links into the site and a graph of the
// first nodes in the store.
func Home(freeze bool) *views.PageView {
	return &views.PageView{
		Name:  "home",
		Path:  "/",
		Title: "Home",
		Sections: []views.Section{
			{
				Name: "hero",
				Body: func(*views.Request) ([]component.Component, error) {
					return views.Components(component.Hero{
						Title: "Autograph",
						Body:  "Welcome to the autograph demo site. Browse the documentation pages, explore the graph or try the components.",
						Links: []component.LinkData{{URL: autograph.BaseURL, Title: "Open Autograph"}},
					}), nil
				},
			},
			{
				Name:  "explore",
				Title: "Explore",
				Body: func(*views.Request) ([]component.Component, error) {
					cards := []component.Card{
						linkCard("Component Catalogue", "Every component the site can render.", CatalogueURL),
						linkCard("Documentation", "Pages of the demo ontology.", DocsURL),
					}
					if !freeze {
						cards = append(cards, linkCard("Create Page", "Write a new documentation page.", CreatePageURL))
					}
					return views.Components(component.CardList{Cards: cards}), nil
				},
			},
			{
				Name:  "graph",
				Title: "Graph View",
				Body: func(r *views.Request) ([]component.Component, error) {
					result, err := r.Env.Store.RunQuery(r.Context(), store.Query{Limit: 25})
					if err != nil {
						return nil, err
					}
					if len(result.Nodes) == 0 {
						return nil, nil
					}
					data := component.GraphDataFromResult(result.Nodes, result.Relationships, true)
					return views.Components(component.Graph3d{ID: "home_graph", Data: &data}), nil
				},
			},
		},
		Elements: []views.Element{
			views.TextElement(component.ElementH1, "Autograph"),
		},
	}
}

func linkCard(title, description, url string) component.Card {
	return component.Card{MetaData: component.MetaData{
		Title:       title,
		Description: description,
		Links:       []component.Link{component.NewLink(url, "")},
	}}
}

// CreatePage creates a documentation page and credits one author in a single
// form. The form is the page type extended with an author choice.
type CreatePage struct {
	Docs *viewset.Viewset
}

// Routes implements views.View.
func (c *CreatePage) Routes(env *views.Env) []views.Route {
	sections := []views.Section{{
		Name:  "form",
		Title: "New Page",
		Body: func(r *views.Request) ([]component.Component, error) {
			t, err := pageWithAuthor(r.Context(), r.Env.Store)
			if err != nil {
				return nil, err
			}
			form, err := forms.Build(t, forms.WithAction(CreatePageURL))
			if err != nil {
				return nil, err
			}
			return views.Components(form), nil
		},
	}}
	elements := []views.Element{{
		Slot: component.ElementBreadcrumbs,
		Value: func(*views.Request) (any, error) {
			return []component.LinkData{viewset.Home, {Title: "Create Page"}}, nil
		},
	}}

	get := func(w http.ResponseWriter, r *http.Request) error {
		page, err := views.BuildPage(&views.Request{Request: r, Env: env, Viewset: c.Docs}, "Create Page", sections, elements)
		if err != nil {
			return err
		}
		return env.WritePage(w, http.StatusOK, page)
	}
	post := func(w http.ResponseWriter, r *http.Request) error {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", views.ErrValidation, err)
		}
		node, err := c.create(r.Context(), env.Store, r.PostForm)
		if err != nil {
			return err
		}
		env.Log().Infow("page created", "slug", node.PP())
		return views.Redirect(w, r, c.Docs.NodeURL(node))
	}

	return []views.Route{
		{Name: "create-page", Method: http.MethodGet, Path: CreatePageURL, Handler: env.Handle(get)},
		{Name: "create-page", Method: http.MethodPost, Path: CreatePageURL, Handler: env.Handle(post)},
	}
}

// create stores the page and its authorship. The author is checked before
// anything is written.
func (c *CreatePage) create(ctx context.Context, st store.Store, data map[string][]string) (*schema.Node, error) {
	t, err := pageWithAuthor(ctx, st)
	if err != nil {
		return nil, err
	}
	form, err := forms.Build(t)
	if err != nil {
		return nil, err
	}
	composite, err := form.ToModel(data)
	if err != nil {
		return nil, err
	}
	name, _ := composite.Get("author")
	author, err := st.Match(ctx, AuthorType, schema.FormatValue(name))
	if err != nil {
		return nil, fmt.Errorf("%w: author %v", views.ErrValidation, name)
	}

	page := composite.As(PageType)
	if err := st.Merge(ctx, page); err != nil {
		return nil, err
	}
	rel := &schema.Relationship{Type: AuthoredBy, Source: page, Target: author}
	if err := st.MergeRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return page, nil
}

// pageWithAuthor extends the page type with a choice over the stored authors.
func pageWithAuthor(ctx context.Context, st store.Reader) (*schema.NodeType, error) {
	authors, err := st.MatchAll(ctx, AuthorType, 0, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.PP())
	}
	return PageType.Extend(schema.Enum("author", schema.Choices(names...)))
}
