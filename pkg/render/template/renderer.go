package template

import (
	"errors"
	"io"
)

// ErrFilterExists reports a filter name that is already registered. pongo2
// filters are global, so a second renderer in the same process sees it for
// filters the first one added.
var ErrFilterExists = errors.New("template: filter already registered")

// TemplateRenderer renders component templates. Render and RenderTemplate take
// a template name, RenderString inline content. Every variant returns the
// output and also copies it to out.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(content string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Lookup reports whether a template exists. The component renderer uses it to
// fall back from a themed partial to the built-in one.
type Lookup interface {
	HasTemplate(name string) bool
}
