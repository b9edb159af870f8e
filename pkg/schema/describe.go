package schema

import (
	"fmt"
	"strings"
)

// Describe returns the node type's field descriptors in declaration order,
// leaving out excluded fields and any name in exclude. A nil type yields an
// empty slice.
func Describe(t *NodeType, exclude ...string) []FieldDescriptor {
	if t == nil {
		return []FieldDescriptor{}
	}
	return filterFields(t.Fields, exclude)
}

// DescribeRelationship returns the relationship's property descriptors with
// the same filtering rules as Describe.
func DescribeRelationship(r *RelationshipType, exclude ...string) []FieldDescriptor {
	if r == nil {
		return []FieldDescriptor{}
	}
	return filterFields(r.Properties, exclude)
}

func filterFields(fields []FieldDescriptor, exclude []string) []FieldDescriptor {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	out := make([]FieldDescriptor, 0, len(fields))
	for _, field := range fields {
		if field.Excluded {
			continue
		}
		if _, ok := skip[field.Name]; ok {
			continue
		}
		field.Options = cloneOptions(field.Options)
		out = append(out, field)
	}
	return out
}

// MarkdownTable documents a node type's properties as a Markdown table.
func MarkdownTable(t *NodeType) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", t.Label)
	fmt.Fprintf(&b, "Primary property: `%s`\n\n", t.PrimaryProperty)
	b.WriteString("| Property | Type | Required |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, field := range t.Fields {
		if field.Excluded {
			continue
		}
		typ := string(field.Type)
		if len(field.Options) > 0 {
			values := make([]string, 0, len(field.Options))
			for _, opt := range field.Options {
				values = append(values, opt.Value)
			}
			typ = fmt.Sprintf("%s (%s)", typ, strings.Join(values, ", "))
		}
		required := "No"
		if field.Required {
			required = "Yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", field.Name, typ, required)
	}
	return b.String()
}
