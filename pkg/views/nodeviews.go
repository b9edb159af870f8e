package views

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/forms"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

// PathValue is the ServeMux wildcard carrying the primary property.
const PathValue = "pp"

// PageView is a page at a fixed path, such as a home page.
type PageView struct {
	Name     string
	Path     string
	Title    string
	Sections []Section
	Elements []Element
}

// Validate reports a page without an absolute path.
func (v *PageView) Validate() error {
	if !strings.HasPrefix(v.Path, "/") {
		return &ConfigurationError{View: v.Name, Reason: "page path must start with /"}
	}
	return nil
}

// Routes implements View.
func (v *PageView) Routes(env *Env) []Route {
	return []Route{{
		Name:   v.Name,
		Method: http.MethodGet,
		Path:   v.Path,
		Static: true,
		Handler: env.Handle(func(w http.ResponseWriter, r *http.Request) error {
			page, err := BuildPage(&Request{Request: r, Env: env}, v.Title, v.Sections, v.Elements)
			if err != nil {
				return err
			}
			return env.WritePage(w, http.StatusOK, page)
		}),
	}}
}

// ListView lists the nodes of a viewset. Without sections it shows all nodes
// as cards.
type ListView struct {
	Viewset  *viewset.Viewset
	Name     string
	Sections []Section
	Elements []Element
}

// ListSections are the default sections of a list page.
func ListSections() []Section {
	return []Section{{
		Name: "nodes",
		Body: func(r *Request) ([]component.Component, error) {
			nodes, err := r.Env.Store.MatchAll(r.Context(), r.Viewset.Type, 0, 0)
			if err != nil {
				return nil, err
			}
			if len(nodes) == 0 {
				return nil, nil
			}
			return Components(r.Viewset.NodesToCards(nodes)), nil
		},
	}}
}

// ListElements are the default chrome of a list page.
func ListElements() []Element {
	return []Element{
		{Slot: component.ElementBreadcrumbs, Value: func(r *Request) (any, error) {
			return r.Viewset.ListBreadcrumbs(), nil
		}},
		{Slot: component.ElementDescription, Value: func(r *Request) (any, error) {
			return r.Viewset.ListDescription(), nil
		}},
	}
}

// ViewName returns the explicit name or the viewset list view name.
func (v *ListView) ViewName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.Viewset.ListViewName()
}

// Page builds the list page.
func (v *ListView) Page(r *Request) (*component.Page, error) {
	sections := v.Sections
	if len(sections) == 0 {
		sections = ListSections()
	}
	return BuildPage(r, v.Viewset.ListTitle(), sections, MergeElements(ListElements(), v.Elements...))
}

// Validate reports a list view without a viewset.
func (v *ListView) Validate() error {
	return checkViewset("list view", v.Name, v.Viewset)
}

// Routes implements View.
func (v *ListView) Routes(env *Env) []Route {
	return []Route{{
		Name:   v.ViewName(),
		Method: http.MethodGet,
		Path:   v.Viewset.ListURL(),
		Static: true,
		Handler: env.Handle(func(w http.ResponseWriter, r *http.Request) error {
			page, err := v.Page(&Request{Request: r, Env: env, Viewset: v.Viewset})
			if err != nil {
				return err
			}
			return env.WritePage(w, http.StatusOK, page)
		}),
	}}
}

// ItemView shows one node. Without sections it shows the node properties.
type ItemView struct {
	Viewset  *viewset.Viewset
	Name     string
	Sections []Section
	Elements []Element
}

// ItemSections are the default sections of an item page.
func ItemSections() []Section {
	return []Section{{
		Name: "properties",
		Body: func(r *Request) ([]component.Component, error) {
			return Components(component.NewNodeTranslatedTable(r.Node, nil)), nil
		},
	}}
}

// ItemElements are the default chrome of an item page.
func ItemElements() []Element {
	return []Element{
		{Slot: component.ElementBreadcrumbs, Value: func(r *Request) (any, error) {
			return r.Viewset.ItemBreadcrumbs(r.Node), nil
		}},
		{Slot: component.ElementDescription, Value: func(r *Request) (any, error) {
			return r.Viewset.ItemDescription(r.Node), nil
		}},
	}
}

// ViewName returns the explicit name or the viewset item view name.
func (v *ItemView) ViewName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.Viewset.ItemViewName()
}

// Page builds the item page for r.Node.
func (v *ItemView) Page(r *Request) (*component.Page, error) {
	sections := v.Sections
	if len(sections) == 0 {
		sections = ItemSections()
	}
	return BuildPage(r, v.Viewset.ItemTitle(r.Node), sections, MergeElements(ItemElements(), v.Elements...))
}

// Validate reports an item view without a viewset.
func (v *ItemView) Validate() error {
	return checkViewset("item view", v.Name, v.Viewset)
}

// Routes implements View.
func (v *ItemView) Routes(env *Env) []Route {
	return []Route{{
		Name:   v.ViewName(),
		Method: http.MethodGet,
		Path:   v.Viewset.ItemURLPattern(),
		Static: true,
		Type:   v.Viewset.Type,
		Handler: env.Handle(func(w http.ResponseWriter, r *http.Request) error {
			req, err := NodeRequest(env, v.Viewset, r)
			if err != nil {
				return err
			}
			page, err := v.Page(req)
			if err != nil {
				return err
			}
			return env.WritePage(w, http.StatusOK, page)
		}),
	}}
}

// EndpointView is a page hanging off an item, such as an edit form.
type EndpointView struct {
	Viewset  *viewset.Viewset
	Endpoint string
	Name     string
	// Crumb titles the last breadcrumb, "here" when empty.
	Crumb    string
	Title    func(r *Request) string
	Sections []Section
	Elements []Element
	// Post handles submissions when set.
	Post func(w http.ResponseWriter, r *Request) error
}

// ViewName returns the explicit name or the viewset endpoint view name.
func (v *EndpointView) ViewName() string {
	if v.Name != "" {
		return v.Name
	}
	return v.Viewset.EndpointViewName(v.Endpoint)
}

// Page builds the endpoint page for r.Node.
func (v *EndpointView) Page(r *Request) (*component.Page, error) {
	title := v.Viewset.ItemTitle(r.Node)
	if v.Title != nil {
		title = v.Title(r)
	}
	elements := MergeElements([]Element{{
		Slot: component.ElementBreadcrumbs,
		Value: func(r *Request) (any, error) {
			return r.Viewset.EndpointBreadcrumbs(r.Node, v.Crumb), nil
		},
	}}, v.Elements...)
	return BuildPage(r, title, v.Sections, elements)
}

// Validate reports an endpoint view without a viewset or an endpoint name.
func (v *EndpointView) Validate() error {
	if err := checkViewset("endpoint view", v.Name, v.Viewset); err != nil {
		return err
	}
	if strings.Trim(v.Endpoint, "/") == "" {
		return &ConfigurationError{View: v.ViewName(), Reason: "endpoint view needs an endpoint"}
	}
	return nil
}

func checkViewset(kind, name string, vs *viewset.Viewset) error {
	if vs == nil {
		return &ConfigurationError{View: name, Reason: kind + " needs a viewset"}
	}
	if vs.Type == nil {
		return &ConfigurationError{View: name, Reason: kind + " viewset has no node type"}
	}
	return nil
}

// Routes implements View.
func (v *EndpointView) Routes(env *Env) []Route {
	path := v.Viewset.EndpointURLPattern(v.Endpoint)
	routes := []Route{{
		Name:   v.ViewName(),
		Method: http.MethodGet,
		Path:   path,
		Handler: env.Handle(func(w http.ResponseWriter, r *http.Request) error {
			req, err := NodeRequest(env, v.Viewset, r)
			if err != nil {
				return err
			}
			page, err := v.Page(req)
			if err != nil {
				return err
			}
			return env.WritePage(w, http.StatusOK, page)
		}),
	}}
	if v.Post != nil {
		routes = append(routes, Route{
			Name:   v.ViewName(),
			Method: http.MethodPost,
			Path:   path,
			Handler: env.Handle(func(w http.ResponseWriter, r *http.Request) error {
				req, err := NodeRequest(env, v.Viewset, r)
				if err != nil {
					return err
				}
				return v.Post(w, req)
			}),
		})
	}
	return routes
}

// NodeRequest loads the node named by the request path. A missing node is
// ErrNotFound.
func NodeRequest(env *Env, vs *viewset.Viewset, r *http.Request) (*Request, error) {
	pp := r.PathValue(PathValue)
	node, err := env.Store.Match(r.Context(), vs.Type, pp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound("%s %q", vs.Type.Label, pp)
	}
	if err != nil {
		return nil, err
	}
	return &Request{Request: r, Env: env, Viewset: vs, Node: node}, nil
}

// Resolver resolves relationship form submissions against the store.
func Resolver(env *Env) forms.Resolver {
	return forms.ResolverFunc(func(ctx context.Context, label, pp string) (*schema.Node, error) {
		t, ok := env.Registry.NodeType(label)
		if !ok {
			return nil, forms.ErrUnresolved
		}
		n, err := env.Store.Match(ctx, t, pp)
		if errors.Is(err, store.ErrNotFound) {
			return nil, forms.ErrUnresolved
		}
		return n, err
	})
}
