// Package autograph generates browse, inspect, create, edit and link pages
// for every registered node type, plus a schema overview at /autograph/.
package autograph

import (
	"html"
	"net/http"
	"strings"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/viewset"
	"github.com/goliatone/go-autograph/pkg/views"
)

const (
	// ViewPrefix starts every autograph view name.
	ViewPrefix = "AutoGraph"
	// ViewsetName names the autograph viewsets.
	ViewsetName = "AutographViewset"
	// BaseURL is the path of the schema overview.
	BaseURL = "/autograph/"

	CreateEndpoint        = "create/"
	EditEndpoint          = "update/"
	RelationshipsEndpoint = "create-relationships/"

	// GraphDepth and GraphLimit bound the neighbourhood drawn on node pages.
	GraphDepth = 2
	GraphLimit = 100
)

// Parents is the breadcrumb chain above every autograph list page.
var Parents = []component.LinkData{
	viewset.Home,
	{URL: BaseURL, Title: "Autograph"},
}

// Viewset returns the autograph viewset of t. Item pages live under
// /autograph/<label>/node/{pp}/.
func Viewset(t *schema.NodeType) *viewset.Viewset {
	return viewset.New(t,
		viewset.WithName(ViewsetName),
		viewset.WithParents(Parents...),
		viewset.WithItemSegment("node"),
	)
}

// CreateURL is the creation form of t.
func CreateURL(vs *viewset.Viewset) string {
	return vs.ListURL() + CreateEndpoint
}

// Autograph serves the generated pages of the node types of a registry.
type Autograph struct {
	registry *schema.Registry
	types    []*schema.NodeType
}

var _ views.View = (*Autograph)(nil)

// New creates the autograph views for types, or for every type registered in
// reg when none are given.
func New(reg *schema.Registry, types ...*schema.NodeType) *Autograph {
	return &Autograph{registry: reg, types: types}
}

func (a *Autograph) nodeTypes() []*schema.NodeType {
	if len(a.types) > 0 {
		return a.types
	}
	return a.registry.NodeTypes()
}

// Routes implements views.View.
func (a *Autograph) Routes(env *views.Env) []views.Route {
	routes := []views.Route{{
		Name:    ViewPrefix,
		Method:  http.MethodGet,
		Path:    BaseURL,
		Handler: env.Handle(a.overview(env)),
		Static:  true,
	}}
	for _, t := range a.nodeTypes() {
		routes = append(routes, a.typeRoutes(env, Viewset(t))...)
	}
	return routes
}

func (a *Autograph) typeRoutes(env *views.Env, vs *viewset.Viewset) []views.Route {
	list := &views.ListView{
		Viewset:  vs,
		Name:     ViewPrefix + vs.ListViewName(),
		Sections: listSections(),
	}
	item := &views.ItemView{
		Viewset:  vs,
		Name:     ViewPrefix + vs.ItemViewName(),
		Sections: itemSections(),
	}
	edit := &views.EndpointView{
		Viewset:  vs,
		Endpoint: EditEndpoint,
		Name:     ViewPrefix + vs.EndpointViewName(strings.Trim(EditEndpoint, "/")),
		Crumb:    "Edit",
		Title:    func(r *views.Request) string { return "Edit '" + r.Node.String() + "' Node" },
		Sections: editSections(),
		Post:     postEdit,
	}
	relationships := &views.EndpointView{
		Viewset:  vs,
		Endpoint: RelationshipsEndpoint,
		Name:     ViewPrefix + vs.EndpointViewName(strings.Trim(RelationshipsEndpoint, "/")),
		Title:    func(r *views.Request) string { return "Create Relationships For " + r.Node.String() },
		Sections: relationshipSections(),
		Post:     postRelationship,
	}

	routes := list.Routes(env)
	routes = append(routes, createRoutes(env, vs)...)
	routes = append(routes, item.Routes(env)...)
	routes = append(routes, edit.Routes(env)...)
	routes = append(routes, relationships.Routes(env)...)
	return routes
}

func (a *Autograph) overview(env *views.Env) views.HandlerFunc {
	sections := []views.Section{
		{
			Name:  "schema",
			Title: "Schema",
			Body: func(*views.Request) ([]component.Component, error) {
				data := component.SchemaGraphData(a.registry)
				return views.Components(component.Graph2d{ID: "autograph_schema", Data: &data}), nil
			},
		},
		{
			Name:  "labels",
			Title: "Explore the Labels",
			Body: func(*views.Request) ([]component.Component, error) {
				var cards []component.Card
				for _, t := range a.nodeTypes() {
					cards = append(cards, component.Card{MetaData: component.MetaData{
						Title: t.Label,
						Links: []component.Link{component.NewLink(Viewset(t).ListURL(), "")},
					}})
				}
				if len(cards) == 0 {
					return nil, nil
				}
				return views.Components(component.CardList{Cards: cards}), nil
			},
		},
	}
	elements := []views.Element{{
		Slot: component.ElementBreadcrumbs,
		Value: func(*views.Request) (any, error) {
			return []component.LinkData{viewset.Home, {Title: "Autograph"}}, nil
		},
	}}
	return func(w http.ResponseWriter, r *http.Request) error {
		page, err := views.BuildPage(&views.Request{Request: r, Env: env}, "Autograph", sections, elements)
		if err != nil {
			return err
		}
		return env.WritePage(w, http.StatusOK, page)
	}
}

// headingWithIcon is a section heading followed by an icon link.
func headingWithIcon(text, href, icon string) component.HTML {
	return component.HTML{Raw: "<h2>" + html.EscapeString(text) +
		"\n<a class=\"icon-link\" href=\"" + html.EscapeString(href) + "\">\n  <i class=\"bi " + icon + "\"></i>\n</a></h2>"}
}
