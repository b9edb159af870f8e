// Package manager assembles autograph views, user views and JSON APIs into a
// single http.Handler.
package manager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-autograph/pkg/api"
	"github.com/goliatone/go-autograph/pkg/autograph"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/metrics"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/store/memory"
	"github.com/goliatone/go-autograph/pkg/views"
)

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the graph store. An in-memory store over the registry is
// used when none is given.
func WithStore(st store.Store) Option {
	return func(m *Manager) {
		m.env.Store = st
	}
}

// WithRegistry sets the type registry.
func WithRegistry(reg *schema.Registry) Option {
	return func(m *Manager) {
		m.env.Registry = reg
	}
}

// WithRenderer sets the component renderer.
func WithRenderer(r *component.Renderer) Option {
	return func(m *Manager) {
		m.env.Renderer = r
	}
}

// WithLogger sets the logger shared by every handler.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.env.Logger = logger
		}
	}
}

// WithAutograph enables the autograph pages for types, or for every
// registered node type when types is empty.
func WithAutograph(types ...*schema.NodeType) Option {
	return func(m *Manager) {
		m.autograph = true
		m.autographTypes = append(m.autographTypes, types...)
	}
}

// WithViews adds user views. Routes are registered in order.
func WithViews(v ...views.View) Option {
	return func(m *Manager) {
		for _, view := range v {
			if view != nil {
				m.views = append(m.views, view)
			}
		}
	}
}

// WithAPI adds JSON APIs.
func WithAPI(a ...*api.API) Option {
	return func(m *Manager) {
		m.apis = append(m.apis, a...)
	}
}

// WithMetrics instruments every route and serves mx at path.
func WithMetrics(mx *metrics.Metrics, path string) Option {
	return func(m *Manager) {
		m.metrics = mx
		if path != "" {
			m.metricsPath = path
		}
	}
}

// WithHandler mounts h at a raw ServeMux pattern, outside the view routes.
func WithHandler(pattern string, h http.Handler) Option {
	return func(m *Manager) {
		m.extra = append(m.extra, mount{pattern: pattern, handler: h})
	}
}

type mount struct {
	pattern string
	handler http.Handler
}

// Manager owns the registered routes and the environment handed to them.
type Manager struct {
	env            *views.Env
	autograph      bool
	autographTypes []*schema.NodeType
	views          []views.View
	apis           []*api.API
	metrics        *metrics.Metrics
	metricsPath    string
	extra          []mount

	routes []views.Route
	mux    *http.ServeMux
}

// New validates the configuration and registers every route. Configuration
// problems are returned as *views.ConfigurationError or
// *api.ConfigurationError.
func New(options ...Option) (*Manager, error) {
	m := &Manager{
		env:         &views.Env{Logger: zap.NewNop().Sugar()},
		metricsPath: metrics.DefaultPath,
		mux:         http.NewServeMux(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}

	if m.env.Renderer == nil {
		r, err := component.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("manager: renderer: %w", err)
		}
		m.env.Renderer = r
	}
	if m.env.Store == nil && m.env.Registry != nil {
		m.env.Store = memory.New(m.env.Registry)
	}
	if err := m.env.Validate(); err != nil {
		return nil, err
	}
	for _, a := range m.apis {
		if a == nil {
			return nil, &api.ConfigurationError{Reason: "nil api"}
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}

	log := m.env.Log()
	log.Info("autograph is not intended for production use")

	if m.autograph {
		m.routes = append(m.routes, autograph.New(m.env.Registry, m.autographTypes...).Routes(m.env)...)
	}
	for _, v := range m.views {
		if v == nil {
			return nil, &views.ConfigurationError{Reason: "nil view"}
		}
		if check, ok := v.(views.Validator); ok {
			if err := check.Validate(); err != nil {
				return nil, err
			}
		}
		m.routes = append(m.routes, v.Routes(m.env)...)
	}
	for _, a := range m.apis {
		m.routes = append(m.routes, a.Routes(m.env)...)
	}

	names := make(map[string]bool, len(m.routes))
	for _, route := range m.routes {
		key := route.Method + " " + route.Name
		if route.Name != "" && names[key] {
			return nil, &views.ConfigurationError{View: route.Name, Reason: "duplicate route name"}
		}
		names[key] = true

		h := route.Handler
		if m.metrics != nil {
			h = m.metrics.Instrument(route.Name, h)
		}
		if err := m.handle(route.Name, route.Pattern(), h); err != nil {
			return nil, err
		}
		log.Debugw("route registered", "name", route.Name, "pattern", route.Pattern())
	}
	if m.metrics != nil {
		if err := m.handle("metrics", http.MethodGet+" "+m.metricsPath, m.metrics.Handler()); err != nil {
			return nil, err
		}
	}
	for _, x := range m.extra {
		if err := m.handle(x.pattern, x.pattern, x.handler); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// handle registers on the mux, turning its registration panics into errors.
func (m *Manager) handle(name, pattern string, h http.Handler) (err error) {
	if h == nil {
		return &views.ConfigurationError{View: name, Reason: "nil handler"}
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &views.ConfigurationError{View: name, Reason: fmt.Sprint(rec)}
		}
	}()
	m.mux.Handle(pattern, h)
	return nil
}

// Handler serves every registered route.
func (m *Manager) Handler() http.Handler {
	return m.mux
}

// Routes lists the registered view routes in registration order.
func (m *Manager) Routes() []views.Route {
	return append([]views.Route(nil), m.routes...)
}

// Env is the environment shared by the handlers.
func (m *Manager) Env() *views.Env {
	return m.env
}

// URL returns the path of the named route.
func (m *Manager) URL(name string) (string, bool) {
	for _, route := range m.routes {
		if route.Name == name {
			return route.Path, true
		}
	}
	return "", false
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (m *Manager) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		m.env.Log().Infow("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("manager: serve: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return fmt.Errorf("manager: shutdown: %w", err)
		}
		return nil
	}
}
