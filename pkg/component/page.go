package component

// Section is a titled block of the page holding body components.
type Section struct {
	Title string
	// TitleLevel is the heading element, "h2" by default.
	TitleLevel string
	// Description is rendered under the title; plain strings become Text.
	Description Component
	Body        []Component
}

// NewSection wraps body components in an untitled section.
func NewSection(body ...Component) *Section {
	return &Section{Body: body}
}

// Describe sets a plain-text description.
func (s *Section) Describe(text string) *Section {
	if text != "" {
		s.Description = Text{Text: text}
	}
	return s
}

func (s *Section) Tags() Tags {
	children := make([]Component, 0, len(s.Body)+1)
	children = append(children, s.Description)
	children = append(children, s.Body...)
	return MergeTags(Tags{}, children...)
}

func (s *Section) Render(r *Renderer) (string, error) {
	description, err := r.Render(s.Description)
	if err != nil {
		return "", err
	}
	body, err := r.renderEach(s.Body)
	if err != nil {
		return "", err
	}
	return r.Execute("section", map[string]any{
		"title":       s.Title,
		"title_level": defaultString(s.TitleLevel, "h2"),
		"description": description,
		"body":        body,
	})
}

// PageElement names a slot of the page chrome.
type PageElement string

const (
	ElementBreadcrumbs PageElement = "breadcrumbs"
	ElementTitle       PageElement = "title"
	ElementDescription PageElement = "description"
	ElementFooterText  PageElement = "footertext"
	ElementLeftbar     PageElement = "leftbar"
	ElementH1          PageElement = "h1"
)

// PageElements are the chrome slots filled by views around the sections.
type PageElements struct {
	Breadcrumbs Component
	Title       string
	Description string
	FooterText  string
	Leftbar     Component
	H1          string
}

// Page is the root of the render tree. Any body component that is not a
// *Section is wrapped in an untitled one.
type Page struct {
	Title        string
	Description  string
	StickyTopnav bool
	Elements     PageElements
	HeadTags     []string
	TailTags     []string

	sections []*Section
}

// NewPage builds a page from sections or bare components.
func NewPage(body ...Component) *Page {
	p := &Page{}
	p.Add(body...)
	return p
}

// Add appends body components, wrapping non-sections.
func (p *Page) Add(body ...Component) *Page {
	for _, c := range body {
		switch v := c.(type) {
		case nil:
			continue
		case *Section:
			p.sections = append(p.sections, v)
		default:
			p.sections = append(p.sections, NewSection(c))
		}
	}
	return p
}

// Sections returns the page sections in order.
func (p *Page) Sections() []*Section {
	return append([]*Section(nil), p.sections...)
}

// Tags unions the page's own tags with every section's, in section order.
// Chrome elements contribute after the sections.
func (p *Page) Tags() Tags {
	children := make([]Component, 0, len(p.sections)+2)
	for _, s := range p.sections {
		children = append(children, s)
	}
	children = append(children, p.Elements.Breadcrumbs, p.Elements.Leftbar)
	return MergeTags(Tags{Head: p.HeadTags, Tail: p.TailTags}, children...)
}

func (p *Page) Render(r *Renderer) (string, error) {
	children := make([]Component, 0, len(p.sections))
	for _, s := range p.sections {
		children = append(children, s)
	}
	sections, err := r.renderEach(children)
	if err != nil {
		return "", err
	}
	breadcrumbs, err := r.Render(p.Elements.Breadcrumbs)
	if err != nil {
		return "", err
	}
	leftbar, err := r.Render(p.Elements.Leftbar)
	if err != nil {
		return "", err
	}

	title := p.Elements.Title
	if title == "" {
		title = p.Title
	}
	description := p.Description
	if description == "" {
		description = p.Elements.Description
	}

	tags := p.Tags()
	ctx := map[string]any{
		"title":         title,
		"description":   description,
		"sticky":        p.StickyTopnav,
		"headtags":      tags.Head,
		"tailtags":      tags.Tail,
		"sections":      sections,
		"breadcrumbs":   breadcrumbs,
		"leftbar":       leftbar,
		"h1":            p.Elements.H1,
		"footer_text":   p.Elements.FooterText,
		"css_vars":      "",
		"stylesheet":    "",
		"script":        "",
		"theme_name":    "",
		"theme_variant": "",
	}
	if cfg := r.Theme(); cfg != nil {
		ctx["css_vars"] = cssVarsStyle(cfg.CSSVars)
		ctx["theme_name"] = cfg.Theme
		ctx["theme_variant"] = cfg.Variant
		if cfg.AssetURL != nil {
			ctx["stylesheet"] = cfg.AssetURL(AssetStylesheet)
			ctx["script"] = cfg.AssetURL(AssetScript)
		}
	}
	return r.Execute("page", ctx)
}
