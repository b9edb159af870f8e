package component

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-theme"

	"github.com/goliatone/go-autograph/pkg/render/template"
	"github.com/goliatone/go-autograph/pkg/render/template/gotemplate"
	"github.com/goliatone/go-autograph/pkg/schema"
)

//go:embed templates/components/*.tpl
var embeddedTemplates embed.FS

var builtinTemplates = mustSub(embeddedTemplates, "templates")

// BuiltinTemplates exposes the default component templates, rooted so that
// "components/card.tpl" is addressable directly.
func BuiltinTemplates() fs.FS {
	return builtinTemplates
}

func mustSub(files fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateRenderer replaces the default pongo2 engine. The engine must be
// able to resolve the "components/<name>" templates.
func WithTemplateRenderer(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithTemplatesFS adds template sources consulted before the built-in ones.
// Theme partials usually live here.
func WithTemplatesFS(files ...fs.FS) Option {
	return func(r *Renderer) {
		for _, f := range files {
			if f != nil {
				r.overrides = append(r.overrides, f)
			}
		}
	}
}

// WithTheme applies a resolved theme configuration.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		r.theme = cfg
	}
}

// WithThemeSelector resolves the named theme and variant when the renderer is
// constructed.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(r *Renderer) {
		r.selector = selector
		r.themeName = name
		r.themeVariant = variant
	}
}

// Renderer turns components into markup. It resolves component templates
// through the active theme before falling back to the built-in templates.
type Renderer struct {
	engine       template.TemplateRenderer
	overrides    []fs.FS
	theme        *theme.RendererConfig
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
}

// NewRenderer constructs a Renderer backed by pongo2 unless another engine is
// supplied.
func NewRenderer(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.selector != nil {
		selection, err := r.selector.Select(r.themeName, r.themeVariant)
		if err != nil {
			return nil, fmt.Errorf("component: select theme %q: %w", r.themeName, err)
		}
		r.theme = ThemeConfig(selection, nil)
	}

	if r.engine == nil {
		engineOpts := make([]gotemplate.Option, 0, len(r.overrides)+2)
		engineOpts = append(engineOpts, gotemplate.WithName("autograph-components"))
		for _, files := range r.overrides {
			engineOpts = append(engineOpts, gotemplate.WithFS(files))
		}
		engineOpts = append(engineOpts, gotemplate.WithFS(builtinTemplates))
		engine, err := gotemplate.New(engineOpts...)
		if err != nil {
			return nil, fmt.Errorf("component: create template engine: %w", err)
		}
		r.engine = engine
	}

	if err := r.engine.RegisterFilter("to_display", toDisplay); err != nil && !errors.Is(err, template.ErrFilterExists) {
		return nil, fmt.Errorf("component: register to_display filter: %w", err)
	}
	return r, nil
}

// MustRenderer is NewRenderer for tests and examples.
func MustRenderer(options ...Option) *Renderer {
	r, err := NewRenderer(options...)
	if err != nil {
		panic(err)
	}
	return r
}

// Render renders a single component. A nil component renders as nothing.
func (r *Renderer) Render(c Component) (string, error) {
	if c == nil {
		return "", nil
	}
	return c.Render(r)
}

// Theme returns the active theme configuration, which may be nil.
func (r *Renderer) Theme() *theme.RendererConfig {
	return r.theme
}

// Execute renders the component template registered under name against data.
// A theme partial keyed "components.<name>" takes precedence when the engine
// can load it.
func (r *Renderer) Execute(name string, data map[string]any) (string, error) {
	path := r.templatePath(name)
	out, err := r.engine.RenderTemplate(path, data)
	if err != nil {
		return "", fmt.Errorf("component: render %s: %w", name, err)
	}
	return out, nil
}

func (r *Renderer) templatePath(name string) string {
	fallback := "components/" + name
	if r.theme == nil {
		return fallback
	}
	partial := strings.TrimSpace(r.theme.Partials["components."+name])
	if partial == "" {
		return fallback
	}
	if lookup, ok := r.engine.(template.Lookup); ok && !lookup.HasTemplate(partial) {
		return fallback
	}
	return partial
}

func (r *Renderer) renderEach(children []Component) ([]string, error) {
	out := make([]string, 0, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		html, err := r.Render(child)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func (r *Renderer) join(children []Component) (string, error) {
	parts, err := r.renderEach(children)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// cssVarsStyle renders theme CSS variables as a :root rule with stable key
// order.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(":root{")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(":")
		b.WriteString(vars[key])
		b.WriteString(";")
	}
	b.WriteString("}")
	return b.String()
}

// toDisplay formats canonical property values for templates. Lists are joined
// with the separator parameter, ", " by default.
func toDisplay(input any, param any) (any, error) {
	sep := ", "
	if s, ok := param.(string); ok && s != "" {
		sep = s
	}
	switch v := input.(type) {
	case []string:
		return strings.Join(v, sep), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, schema.FormatValue(item))
		}
		return strings.Join(parts, sep), nil
	default:
		return schema.FormatValue(v), nil
	}
}
