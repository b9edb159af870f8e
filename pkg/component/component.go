// Package component provides the render tree used to build pages: typed,
// composable view-model values that render through a template collaborator
// and carry the external head and tail tags they need.
package component

// URLPlaceholder marks where an escaped primary-property value is substituted
// in URL patterns.
const URLPlaceholder = "{pp}"

// Component is a renderable unit of the page tree.
type Component interface {
	// Tags returns the head and tail tags the component needs, including those
	// of its children.
	Tags() Tags
	// Render produces the component's markup.
	Render(r *Renderer) (string, error)
}

// Tags holds the ordered external references (scripts, stylesheets) injected
// into the document head and before the closing body tag.
type Tags struct {
	Head []string
	Tail []string
}

// Add appends the tags of other, skipping any already present. The first
// appearance of a tag fixes its position.
func (t Tags) Add(other Tags) Tags {
	return Tags{
		Head: appendUnique(t.Head, other.Head),
		Tail: appendUnique(t.Tail, other.Tail),
	}
}

// MergeTags unions the tags of own and every component in order, depth first.
func MergeTags(own Tags, children ...Component) Tags {
	out := Tags{}.Add(own)
	for _, child := range children {
		if child == nil {
			continue
		}
		out = out.Add(child.Tags())
	}
	return out
}

func appendUnique(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]struct{}, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, tag := range dst {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, tag := range src {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Group renders its children one after another without extra markup.
type Group []Component

// Tags implements Component.
func (g Group) Tags() Tags {
	return MergeTags(Tags{}, g...)
}

// Render implements Component.
func (g Group) Render(r *Renderer) (string, error) {
	return r.join(g)
}
