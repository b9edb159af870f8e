package views

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

// Request is the per-request context handed to section and element builders.
type Request struct {
	*http.Request
	Env     *Env
	Viewset *viewset.Viewset
	// Node is the node addressed by item and endpoint pages.
	Node *schema.Node
}

// Section is one named page section. Body returning no components drops the
// section from the page.
type Section struct {
	Name        string
	Title       string
	Description string
	TitleLevel  string
	Body        func(r *Request) ([]component.Component, error)
}

// Element fills one chrome slot of the page. Value must return a string for
// the text slots and a component for breadcrumbs and the leftbar.
type Element struct {
	Slot  component.PageElement
	Value func(r *Request) (any, error)
}

// TextElement is an element with a fixed string value.
func TextElement(slot component.PageElement, text string) Element {
	return Element{Slot: slot, Value: func(*Request) (any, error) { return text, nil }}
}

// MergeSections appends overrides to base. A named override replaces the
// base section of the same name in place.
func MergeSections(base []Section, overrides ...Section) []Section {
	out := append([]Section(nil), base...)
	for _, s := range overrides {
		replaced := false
		if s.Name != "" {
			for i := range out {
				if out[i].Name == s.Name {
					out[i] = s
					replaced = true
					break
				}
			}
		}
		if !replaced {
			out = append(out, s)
		}
	}
	return out
}

// MergeElements appends overrides to base; later elements for the same slot
// win.
func MergeElements(base []Element, overrides ...Element) []Element {
	return append(append([]Element(nil), base...), overrides...)
}

// BuildPage assembles a page titled title from the sections and elements. The
// H1 slot defaults to the page title.
func BuildPage(r *Request, title string, sections []Section, elements []Element) (*component.Page, error) {
	page := component.NewPage()
	page.Title = title
	for _, s := range sections {
		if s.Body == nil {
			continue
		}
		body, err := s.Body(r)
		if err != nil {
			return nil, fmt.Errorf("views: section %q: %w", s.Name, err)
		}
		if len(body) == 0 {
			continue
		}
		section := &component.Section{Title: s.Title, TitleLevel: s.TitleLevel, Body: body}
		section.Describe(s.Description)
		page.Add(section)
	}

	for _, el := range elements {
		if el.Value == nil {
			continue
		}
		value, err := el.Value(r)
		if err != nil {
			return nil, fmt.Errorf("views: element %q: %w", el.Slot, err)
		}
		if err := setElement(&page.Elements, el.Slot, value); err != nil {
			return nil, err
		}
	}
	if page.Elements.Title == "" {
		page.Elements.Title = title
	}
	if page.Elements.H1 == "" {
		page.Elements.H1 = page.Elements.Title
	}
	return page, nil
}

func setElement(el *component.PageElements, slot component.PageElement, value any) error {
	switch slot {
	case component.ElementBreadcrumbs, component.ElementLeftbar:
		var c component.Component
		switch v := value.(type) {
		case nil:
		case component.Component:
			c = v
		case []component.LinkData:
			c = component.Breadcrumb{Links: v}
		default:
			return fmt.Errorf("views: element %q wants a component, got %T", slot, value)
		}
		if slot == component.ElementBreadcrumbs {
			el.Breadcrumbs = c
		} else {
			el.Leftbar = c
		}
		return nil
	}

	text, ok := value.(string)
	if !ok && value != nil {
		return fmt.Errorf("views: element %q wants a string, got %T", slot, value)
	}
	switch slot {
	case component.ElementTitle:
		el.Title = text
	case component.ElementDescription:
		el.Description = text
	case component.ElementFooterText:
		el.FooterText = text
	case component.ElementH1:
		el.H1 = text
	default:
		return fmt.Errorf("views: unknown page element %q", slot)
	}
	return nil
}

// Components is a convenience for section bodies.
func Components(c ...component.Component) []component.Component {
	out := make([]component.Component, 0, len(c))
	for _, item := range c {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}
