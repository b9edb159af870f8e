// Package gotemplate implements template.TemplateRenderer with pongo2.
package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-autograph/pkg/render/template"
)

// Extension is appended to template names that lack it.
const Extension = ".tpl"

// Option configures an Engine.
type Option func(*Engine)

// WithName names the pongo2 template set.
func WithName(name string) Option {
	return func(e *Engine) {
		if name = strings.TrimSpace(name); name != "" {
			e.name = name
		}
	}
}

// WithFS appends a template source. Sources added first shadow later ones, so
// overrides go before the built-in templates.
func WithFS(files fs.FS) Option {
	return func(e *Engine) {
		if files != nil {
			e.sources = append(e.sources, files)
		}
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(globals map[string]any) Option {
	return func(e *Engine) {
		for k, v := range globals {
			e.globals[k] = v
		}
	}
}

// Engine renders templates from a pongo2 set. Parsed file templates are
// cached by name.
type Engine struct {
	name    string
	sources []fs.FS
	globals map[string]any

	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

var (
	_ template.TemplateRenderer = (*Engine)(nil)
	_ template.Lookup           = (*Engine)(nil)
)

// New builds an engine over the configured sources. At least one is required.
func New(options ...Option) (*Engine, error) {
	e := &Engine{name: "autograph", globals: map[string]any{}, cache: map[string]*pongo2.Template{}}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if len(e.sources) == 0 {
		return nil, errors.New("gotemplate: no template source")
	}

	loaders := make([]pongo2.TemplateLoader, 0, len(e.sources))
	for _, src := range e.sources {
		loaders = append(loaders, pongo2.NewFSLoader(src))
	}
	e.set = pongo2.NewSet(e.name, loaders...)
	registerBuiltinFilters()

	if err := e.GlobalContext(e.globals); err != nil {
		return nil, err
	}
	return e, nil
}

// Render renders name as inline content when it holds template tags and as a
// file name otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders a template file.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	tpl, err := e.lookup(withExtension(name))
	if err != nil {
		return "", err
	}
	return e.execute(tpl, data, out)
}

// RenderString compiles and renders inline content. The result is not cached.
func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.execute(tpl, data, out)
}

// HasTemplate implements template.Lookup.
func (e *Engine) HasTemplate(name string) bool {
	_, err := e.lookup(withExtension(name))
	return err == nil
}

// RegisterFilter adds a process-wide pongo2 filter. A taken name yields
// template.ErrFilterExists.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter needs a name and a function")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q: %w", name, template.ErrFilterExists)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		v, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(v), nil
	})
}

// GlobalContext merges data into the set globals.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("gotemplate: globals: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	e.set.Globals.Update(ctx)
	return nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tpl, ok := e.cache[name]
	e.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tpl, ok := e.cache[name]; ok {
		return tpl, nil
	}
	tpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", name, err)
	}
	e.cache[name] = tpl
	return tpl, nil
}

func (e *Engine) execute(tpl *pongo2.Template, data any, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: context: %w", err)
	}
	var buf bytes.Buffer
	e.mu.RLock()
	err = tpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute: %w", err)
	}
	for _, w := range out {
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func withExtension(name string) string {
	if strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}

// toContext turns view data into a pongo2 context. Maps keep their values
// except for structs and typed slices below them, which are flattened through
// JSON so templates address them by json name.
func toContext(data any) (pongo2.Context, error) {
	var m map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		m = v
	case map[string]any:
		m = v
	default:
		flat, err := flatten(v)
		if err != nil {
			return nil, err
		}
		var ok bool
		if m, ok = flat.(map[string]any); !ok {
			return nil, fmt.Errorf("want an object, got %T", data)
		}
	}
	ctx := make(pongo2.Context, len(m))
	for k, v := range m {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		conv, err := plain(v)
		if err != nil {
			return nil, err
		}
		ctx[k] = conv
	}
	return ctx, nil
}

// plain leaves scalars, functions and already plain containers alone and
// flattens everything else.
func plain(v any) (any, error) {
	switch value := v.(type) {
	case nil, string, bool, int, int64, float64:
		return value, nil
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			conv, err := plain(item)
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case pongo2.Context:
		return plain(map[string]any(value))
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			conv, err := plain(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	}
	if isFunc(v) {
		return v, nil
	}
	return flatten(v)
}

// flatten decodes the JSON encoding of v, keeping integral numbers as int64.
func flatten(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return numbers(out), nil
}

func numbers(v any) any {
	switch value := v.(type) {
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n
		}
		f, _ := value.Float64()
		return f
	case map[string]any:
		for k, item := range value {
			value[k] = numbers(item)
		}
	case []any:
		for i, item := range value {
			value[i] = numbers(item)
		}
	}
	return v
}

func isFunc(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Func
}

var builtinFilters = map[string]pongo2.FilterFunction{
	// trim strips surrounding whitespace.
	"trim": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(strings.TrimSpace(in.String())), nil
	},
	// attr renders a boolean attribute: {{ required|attr:"required" }} is
	// " required" when the input is truthy and empty otherwise.
	"attr": func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		if !in.IsTrue() {
			return pongo2.AsSafeValue(""), nil
		}
		return pongo2.AsSafeValue(" " + param.String()), nil
	},
}

func registerBuiltinFilters() {
	for name, fn := range builtinFilters {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}
