// Package autograph generates browsable HTML pages, forms and a JSON API for
// a typed property graph. The root package re-exports the entry points most
// applications need; the subpackages hold the pieces.
package autograph

import (
	"io/fs"

	"github.com/goliatone/go-autograph/pkg/api"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/manager"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
)

// Manager binds views, the autograph pages and the APIs onto one handler.
type Manager = manager.Manager

// Option configures a Manager.
type Option = manager.Option

// Registry holds the node and relationship types of a graph.
type Registry = schema.Registry

// New builds a manager serving the autograph pages of reg and any extra
// options.
func New(reg *Registry, options ...Option) (*Manager, error) {
	return manager.New(append([]Option{manager.WithRegistry(reg), manager.WithAutograph()}, options...)...)
}

// WithStore sets the graph store. The default is an in-memory store.
func WithStore(st store.Store) Option {
	return manager.WithStore(st)
}

// WithViews adds application views next to the autograph pages.
func WithViews(v ...views.View) Option {
	return manager.WithViews(v...)
}

// WithAPI mounts JSON APIs.
func WithAPI(a ...*api.API) Option {
	return manager.WithAPI(a...)
}

// NewAPI exposes resources under /api/<version>/.
func NewAPI(version string, resources ...*api.Resource) *api.API {
	return api.New(version, resources...)
}

// EmbeddedTemplates exposes the built-in component templates so callers can
// copy or extend them.
func EmbeddedTemplates() fs.FS {
	return component.BuiltinTemplates()
}
