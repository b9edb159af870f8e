// Package api exposes registered node types as read-only JSON resources under
// /api/{version}/ with an OpenAPI document describing them.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
)

// DefaultVersion is used when an API is created without a version.
const DefaultVersion = "v1"

// ConfigurationError reports an API resource that cannot be served.
type ConfigurationError struct {
	Resource string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Resource == "" {
		return "api: " + e.Reason
	}
	return fmt.Sprintf("api: resource %q %s", e.Resource, e.Reason)
}

// RelatedFunc returns the nodes related to node under one related resource.
type RelatedFunc func(ctx context.Context, st store.Reader, node *schema.Node) ([]*schema.Node, error)

// Resource publishes one node type.
type Resource struct {
	Type *schema.NodeType
	// Name is the plural path segment, e.g. "pages".
	Name string
	// Description documents the resource's OpenAPI tag.
	Description string
	// Related maps a path segment to the nodes it lists.
	Related map[string]RelatedFunc
	// Serialize overrides the default property dump.
	Serialize func(*schema.Node) any
}

// Singular is the resource name without its last letter, title-cased, as used
// in not-found messages.
func (r *Resource) Singular() string {
	_, size := utf8.DecodeLastRuneInString(r.Name)
	return titleWords(r.Name[:len(r.Name)-size])
}

func (r *Resource) serialize(n *schema.Node) any {
	if r.Serialize != nil {
		return r.Serialize(n)
	}
	return Serialize(n)
}

func (r *Resource) relatedNames() []string {
	names := make([]string, 0, len(r.Related))
	for name := range r.Related {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// API serves a versioned set of resources.
type API struct {
	Version   string
	Title     string
	Resources []*Resource
}

var _ views.View = (*API)(nil)

// New creates an API. An empty version becomes DefaultVersion.
func New(version string, resources ...*Resource) *API {
	if version == "" {
		version = DefaultVersion
	}
	return &API{Version: version, Title: "Autograph API", Resources: resources}
}

// Validate checks that every resource names a type, a path segment and a
// description, and that no path segment is used twice.
func (a *API) Validate() error {
	if strings.Trim(a.Version, "/") == "" || strings.Contains(a.Version, "/") {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid version %q", a.Version)}
	}
	seen := make(map[string]bool, len(a.Resources))
	for i, res := range a.Resources {
		if res == nil {
			return &ConfigurationError{Resource: strconv.Itoa(i), Reason: "is nil"}
		}
		switch {
		case res.Type == nil:
			return &ConfigurationError{Resource: res.Name, Reason: "must define a node type"}
		case res.Name == "":
			return &ConfigurationError{Resource: res.Type.Label, Reason: "must define a resource name"}
		case strings.Contains(res.Name, "/"):
			return &ConfigurationError{Resource: res.Name, Reason: "name must be a single path segment"}
		case res.Description == "":
			return &ConfigurationError{Resource: res.Name, Reason: "must define a tag description"}
		case res.Name == "openapi":
			return &ConfigurationError{Resource: res.Name, Reason: "clashes with the OpenAPI document"}
		case seen[res.Name]:
			return &ConfigurationError{Resource: res.Name, Reason: "is declared twice"}
		}
		seen[res.Name] = true
		for rel, fn := range res.Related {
			if rel == "" || strings.Contains(rel, "/") || fn == nil {
				return &ConfigurationError{Resource: res.Name, Reason: fmt.Sprintf("has an invalid related resource %q", rel)}
			}
		}
	}
	return nil
}

// Prefix is the path every route of the API starts with.
func (a *API) Prefix() string {
	return "/api/" + a.Version + "/"
}

// ListURL is the collection endpoint of res.
func (a *API) ListURL(res *Resource) string {
	return a.Prefix() + res.Name + ".json"
}

// DetailURL is the endpoint of one node of res.
func (a *API) DetailURL(res *Resource, pp string) string {
	return a.Prefix() + res.Name + "/" + schema.EscapePP(pp) + ".json"
}

// RelatedURL is the endpoint listing the nodes related to pp under rel.
func (a *API) RelatedURL(res *Resource, pp, rel string) string {
	return a.Prefix() + res.Name + "/" + schema.EscapePP(pp) + "/" + rel + ".json"
}

// DocumentURL serves the OpenAPI document.
func (a *API) DocumentURL() string {
	return a.Prefix() + "openapi.json"
}

// Routes implements views.View.
func (a *API) Routes(env *views.Env) []views.Route {
	prefix := "api-" + a.Version
	routes := []views.Route{{
		Name:    prefix + "-openapi",
		Method:  http.MethodGet,
		Path:    a.DocumentURL(),
		Handler: a.handle(env, a.serveDocument),
		Static:  true,
	}}
	for _, res := range a.Resources {
		base := prefix + "-" + res.Name
		item := a.Prefix() + res.Name + "/{" + views.PathValue + "}"
		routes = append(routes,
			views.Route{
				Name:    base + "-list",
				Method:  http.MethodGet,
				Path:    a.ListURL(res),
				Handler: a.handle(env, func(w http.ResponseWriter, r *http.Request) error { return a.serveList(env, res, w, r) }),
				Static:  true,
			},
			// ServeMux wildcards span whole segments, so the ".json" suffix
			// is stripped by the handler.
			views.Route{
				Name:     base + "-detail",
				Method:   http.MethodGet,
				Path:     item,
				Handler:  a.handle(env, func(w http.ResponseWriter, r *http.Request) error { return a.serveDetail(env, res, w, r) }),
				Static:   true,
				Type:     res.Type,
				Template: item + ".json",
			},
		)
		for _, rel := range res.relatedNames() {
			routes = append(routes, views.Route{
				Name:    base + "-related-" + rel,
				Method:  http.MethodGet,
				Path:    item + "/" + rel + ".json",
				Handler: a.handle(env, func(w http.ResponseWriter, r *http.Request) error { return a.serveRelated(env, res, rel, w, r) }),
				Static:  true,
				Type:    res.Type,
			})
		}
	}
	return routes
}

func (a *API) serveDocument(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, a.Document())
}

func (a *API) serveList(env *views.Env, res *Resource, w http.ResponseWriter, r *http.Request) error {
	limit, skip, err := paging(r.URL.Query())
	if err != nil {
		return err
	}
	nodes, err := env.Store.MatchAll(r.Context(), res.Type, limit, skip)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a.serializeAll(res, nodes))
}

func (a *API) serveDetail(env *views.Env, res *Resource, w http.ResponseWriter, r *http.Request) error {
	pp, ok := strings.CutSuffix(r.PathValue(views.PathValue), ".json")
	if !ok {
		return fmt.Errorf("%w: %s", views.ErrNotFound, r.URL.Path)
	}
	node, err := a.match(r.Context(), env, res, pp)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res.serialize(node))
}

func (a *API) serveRelated(env *views.Env, res *Resource, rel string, w http.ResponseWriter, r *http.Request) error {
	node, err := a.match(r.Context(), env, res, r.PathValue(views.PathValue))
	if err != nil {
		return err
	}
	related, err := res.Related[rel](r.Context(), env.Store, node)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a.serializeAll(res, related))
}

func (a *API) match(ctx context.Context, env *views.Env, res *Resource, pp string) (*schema.Node, error) {
	node, err := env.Store.Match(ctx, res.Type, pp)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &notFound{resource: res.Singular()}
	}
	return node, err
}

func (a *API) serializeAll(res *Resource, nodes []*schema.Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, res.serialize(n))
	}
	return out
}

// notFound carries the resource-specific message of a missing node.
type notFound struct {
	resource string
}

func (e *notFound) Error() string        { return e.resource + " not found" }
func (e *notFound) Is(target error) bool { return target == views.ErrNotFound }

// handle writes failures as {"error": message} with the status of the error.
func (a *API) handle(env *views.Env, h views.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		status := views.StatusCode(err)
		message := http.StatusText(status)
		var nf *notFound
		if errors.As(err, &nf) {
			message = nf.Error()
		}
		if status >= http.StatusInternalServerError {
			env.Log().Errorw("api request failed", "path", r.URL.Path, "error", err)
		} else {
			env.Log().Debugw("api request rejected", "path", r.URL.Path, "status", status, "error", err)
		}
		_ = writeJSON(w, status, map[string]string{"error": message})
	})
}

// Serialize dumps the node properties. Declared fields without a value are
// present as null.
func Serialize(n *schema.Node) map[string]any {
	out := n.Dump()
	if n == nil || n.Type == nil {
		return out
	}
	for _, field := range n.Type.Fields {
		if _, ok := out[field.Name]; !ok {
			out[field.Name] = nil
		}
	}
	return out
}

// Neighbours lists the nodes joined to a node by relationships of the given
// tags, in either direction. With no tags, every relationship counts.
func Neighbours(tags ...string) RelatedFunc {
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}
	return func(ctx context.Context, st store.Reader, node *schema.Node) ([]*schema.Node, error) {
		start := store.Ref(node)
		result, err := st.RunQuery(ctx, store.Query{Start: &start, Depth: 1, Limit: store.DefaultQueryLimit})
		if err != nil {
			return nil, err
		}
		seen := map[store.NodeRef]bool{start: true}
		var out []*schema.Node
		for _, rel := range result.Relationships {
			if len(wanted) > 0 && !wanted[rel.Tag()] {
				continue
			}
			for _, end := range []*schema.Node{rel.Source, rel.Target} {
				ref := store.Ref(end)
				if seen[ref] {
					continue
				}
				seen[ref] = true
				out = append(out, end)
			}
		}
		schema.SortNodes(out)
		return out, nil
	}
}

func paging(q url.Values) (limit, skip int, err error) {
	for name, dst := range map[string]*int{"limit": &limit, "skip": &skip} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 0 {
			return 0, 0, fmt.Errorf("%w: %s must be a non-negative integer", views.ErrValidation, name)
		}
		*dst = v
	}
	return limit, skip, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// titleWords upper-cases the first letter of every word and lower-cases the
// rest.
func titleWords(s string) string {
	var b strings.Builder
	start := true
	for _, r := range s {
		if unicode.IsLetter(r) {
			if start {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			start = false
			continue
		}
		b.WriteRune(r)
		start = true
	}
	return b.String()
}
