package schema

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Node is a concrete value of a NodeType. Properties hold canonical values:
// string for text, enum, date, email and secret fields, int64 for integers
// and []string for enum lists.
type Node struct {
	Type       *NodeType
	Properties map[string]any
}

// Label returns the node type's primary label.
func (n *Node) Label() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.Label
}

// PP returns the primary-property value as a string.
func (n *Node) PP() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return FormatValue(n.Properties[n.Type.PrimaryProperty])
}

// EscapePP escapes a primary property value as one URL path segment. The
// segments "." and ".." are percent-encoded as well, since routers and clients
// would otherwise treat them as relative path steps.
func EscapePP(pp string) string {
	switch pp {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(pp)
}

// String renders the display property.
func (n *Node) String() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return FormatValue(n.Properties[n.Type.Display])
}

// Get returns a property value.
func (n *Node) Get(name string) (any, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.Properties[name]
	return v, ok
}

// As projects the node onto another node type sharing the same identity,
// keeping only the properties that type declares.
func (n *Node) As(t *NodeType) *Node {
	out := &Node{Type: t, Properties: make(map[string]any)}
	if n == nil || t == nil {
		return out
	}
	for _, field := range t.Fields {
		if v, ok := n.Properties[field.Name]; ok {
			out.Properties[field.Name] = cloneValue(v)
		}
	}
	return out
}

// Clone returns a deep copy of the node's properties.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Type: n.Type, Properties: make(map[string]any, len(n.Properties))}
	for k, v := range n.Properties {
		out.Properties[k] = cloneValue(v)
	}
	return out
}

// Dump returns a copy of the properties suitable for serialisation. Secret
// values are masked.
func (n *Node) Dump() map[string]any {
	out := make(map[string]any)
	if n == nil {
		return out
	}
	for k, v := range n.Properties {
		if field, ok := n.Type.Field(k); ok && field.Type == TypeSecret {
			out[k] = SecretMask
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Relationship is a concrete typed edge between two nodes.
type Relationship struct {
	Type       *RelationshipType
	Source     *Node
	Target     *Node
	Properties map[string]any
}

// Tag returns the relationship type tag.
func (r *Relationship) Tag() string {
	if r == nil || r.Type == nil {
		return ""
	}
	return r.Type.Type
}

// Key identifies the relationship by tag and both endpoint identities.
func (r *Relationship) Key() string {
	return strings.Join([]string{
		r.Tag(),
		r.Source.Label(), r.Source.PP(),
		r.Target.Label(), r.Target.PP(),
	}, "\x00")
}

// FormatValue renders a canonical property value as display text. Lists are
// joined with ", ".
func FormatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case []string:
		return strings.Join(value, ", ")
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// SortNodes orders nodes by primary-property value.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].PP() < nodes[j].PP()
	})
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case []string:
		out := make([]string, len(value))
		copy(out, value)
		return out
	default:
		return v
	}
}

func clonePropertyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}
