package component

import (
	"net/url"
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Text renders a string inside a single element, a paragraph by default.
type Text struct {
	Text string
	Tag  string
}

func (c Text) Tags() Tags { return Tags{} }

func (c Text) Render(r *Renderer) (string, error) {
	tag := c.Tag
	if tag == "" {
		tag = "p"
	}
	return r.Execute("text", map[string]any{"tag": tag, "text": c.Text})
}

// HTML embeds trusted markup verbatim.
type HTML struct {
	Raw       string
	HeadTags  []string
	TailTags  []string
	Sanitized bool
}

func (c HTML) Tags() Tags { return Tags{Head: c.HeadTags, Tail: c.TailTags} }

func (c HTML) Render(r *Renderer) (string, error) {
	raw := c.Raw
	if c.Sanitized {
		raw = sanitizer().Sanitize(raw)
	}
	return r.Execute("html", map[string]any{"raw": raw})
}

// Markdown converts Markdown text to sanitised HTML. Tables are supported and
// absolute links open in a new tab without a referrer.
type Markdown struct {
	Text string
}

func (c Markdown) Tags() Tags { return Tags{} }

func (c Markdown) Render(r *Renderer) (string, error) {
	return r.Execute("html", map[string]any{"raw": MarkdownToHTML(c.Text)})
}

// MarkdownToHTML renders Markdown with the settings used by the Markdown
// component.
func MarkdownToHTML(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.NoreferrerLinks | mdhtml.NoopenerLinks,
	})
	out := markdown.ToHTML([]byte(text), p, renderer)
	return sanitizer().Sanitize(string(out))
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		policy.AllowAttrs("class").Globally()
	})
	return policy
}

// LinkData is the plain data of a link, used by breadcrumbs and menus.
type LinkData struct {
	URL    string `json:"url,omitempty"`
	Title  string `json:"title"`
	Target string `json:"target,omitempty"`
}

// Domain returns the host of an absolute URL.
func (l LinkData) Domain() string {
	if l.URL == "" {
		return ""
	}
	parsed, err := url.Parse(l.URL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// DisplayTitle returns the title, "Link" when empty.
func (l LinkData) DisplayTitle() string {
	if l.Title == "" {
		return "Link"
	}
	return l.Title
}

// Link renders an anchor. Without a URL only the title is rendered.
type Link struct {
	LinkData
	Classes []string
}

// NewLink builds a link component.
func NewLink(url, title string) Link {
	return Link{LinkData: LinkData{URL: url, Title: title}}
}

func (c Link) Tags() Tags { return Tags{} }

func (c Link) Render(r *Renderer) (string, error) {
	return r.Execute("link", map[string]any{
		"url":     c.URL,
		"title":   c.DisplayTitle(),
		"target":  c.Target,
		"classes": strings.Join(c.Classes, " "),
	})
}

// WithClass returns a copy of the link with an extra CSS class.
func (c Link) WithClass(class string) Link {
	classes := append(append([]string(nil), c.Classes...), class)
	c.Classes = classes
	return c
}

// Breadcrumb renders a trail of links. Entries without a URL are rendered as
// the active item.
type Breadcrumb struct {
	Links []LinkData
}

func (c Breadcrumb) Tags() Tags { return Tags{} }

func (c Breadcrumb) Render(r *Renderer) (string, error) {
	crumbs := make([]map[string]any, 0, len(c.Links))
	for _, link := range c.Links {
		crumbs = append(crumbs, map[string]any{"url": link.URL, "title": link.DisplayTitle()})
	}
	return r.Execute("breadcrumb", map[string]any{"breadcrumbs": crumbs})
}
