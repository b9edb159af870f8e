// Package views serves pages built from ordered section and element lists.
// List, item and endpoint views pair a viewset with those lists; the
// autograph and demo pages are built on the same types.
package views

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// Env carries the collaborators every handler needs.
type Env struct {
	Store    store.Store
	Registry *schema.Registry
	Renderer *component.Renderer
	Logger   *zap.SugaredLogger
}

// Log returns the environment logger or a no-op logger.
func (e *Env) Log() *zap.SugaredLogger {
	if e == nil || e.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return e.Logger
}

// Validate reports missing collaborators.
func (e *Env) Validate() error {
	var missing []string
	if e.Store == nil {
		missing = append(missing, "store")
	}
	if e.Registry == nil {
		missing = append(missing, "registry")
	}
	if e.Renderer == nil {
		missing = append(missing, "renderer")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Reason: "environment is missing " + strings.Join(missing, ", ")}
	}
	return nil
}

// HandlerFunc is an HTTP handler that reports failures as errors.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h, mapping returned errors onto status codes.
func (e *Env) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		status := StatusCode(err)
		log := e.Log().With("method", r.Method, "path", r.URL.Path, "status", status)
		if status >= http.StatusInternalServerError {
			log.Errorw("request failed", "error", err)
		} else {
			log.Warnw("request rejected", "error", err)
		}
		http.Error(w, http.StatusText(status), status)
	})
}

// WritePage renders page with the environment renderer.
func (e *Env) WritePage(w http.ResponseWriter, status int, page *component.Page) error {
	if e.Renderer == nil {
		return errors.New("views: no renderer configured")
	}
	body, err := e.Renderer.Render(page)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write([]byte(body))
	return err
}

// Redirect answers a successful form submission.
func Redirect(w http.ResponseWriter, r *http.Request, url string) error {
	http.Redirect(w, r, url, http.StatusSeeOther)
	return nil
}

// Route binds a handler to a method and path.
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler http.Handler

	// Static marks GET routes whose output can be written to disk.
	Static bool
	// Type enumerates the {pp} values of a static route's path.
	Type *schema.NodeType
	// Template is the public URL when it differs from Path, with {pp}
	// standing for the escaped primary property.
	Template string
}

// Pattern is the ServeMux pattern of the route. Paths ending in a slash match
// exactly.
func (r Route) Pattern() string {
	path := r.Path
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	if r.Method == "" {
		return path
	}
	return r.Method + " " + path
}

// URLs lists the concrete URLs of a static route: the path itself, or one URL
// per node of Type.
func (r Route) URLs(ctx context.Context, st store.Reader) ([]string, error) {
	if !r.Static {
		return nil, nil
	}
	template := r.Template
	if template == "" {
		template = r.Path
	}
	if r.Type == nil {
		return []string{template}, nil
	}
	nodes, err := st.MatchAll(ctx, r.Type, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, strings.ReplaceAll(template, "{"+PathValue+"}", schema.EscapePP(n.PP())))
	}
	return out, nil
}

// View is anything that contributes routes.
type View interface {
	Routes(env *Env) []Route
}

// Validator is implemented by views that can check their configuration
// before their routes are built.
type Validator interface {
	Validate() error
}
