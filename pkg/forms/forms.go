// Package forms synthesises HTML forms from node and relationship schemas and
// turns submitted form data back into schema instances.
package forms

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
)

const defaultMethod = "post"

// Option customises a form under construction.
type Option func(*config)

type config struct {
	defaultInstance *schema.Node
	excluded        map[string]struct{}
	action          string
	method          string
	extraFields     []schema.FieldDescriptor

	sourceNode    *schema.Node
	targetNode    *schema.Node
	sourceOptions []*schema.Node
	targetOptions []*schema.Node
	sourceTypes   []*schema.NodeType
	targetTypes   []*schema.NodeType
}

func newConfig(options []Option) *config {
	cfg := &config{
		excluded: make(map[string]struct{}),
		method:   defaultMethod,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return cfg
}

func (c *config) excludedNames() []string {
	out := make([]string, 0, len(c.excluded))
	for name := range c.excluded {
		out = append(out, name)
	}
	return out
}

// WithDefaultInstance pre-fills placeholders from an existing node.
func WithDefaultInstance(node *schema.Node) Option {
	return func(c *config) {
		c.defaultInstance = node
	}
}

// WithExcluded omits the named fields from the form.
func WithExcluded(names ...string) Option {
	return func(c *config) {
		for _, name := range names {
			c.excluded[name] = struct{}{}
		}
	}
}

// WithAction sets the form action URL.
func WithAction(action string) Option {
	return func(c *config) {
		c.action = action
	}
}

// WithMethod overrides the form method, "post" by default.
func WithMethod(method string) Option {
	return func(c *config) {
		if method != "" {
			c.method = method
		}
	}
}

// WithExtraFields adds ad hoc fields after the node type's own fields. The
// form then validates against the composite type; project results back with
// schema.Node.As.
func WithExtraFields(fields ...schema.FieldDescriptor) Option {
	return func(c *config) {
		c.extraFields = append(c.extraFields, fields...)
	}
}

// WithSourceNode fixes the relationship source to a single node.
func WithSourceNode(node *schema.Node) Option {
	return func(c *config) {
		c.sourceNode = node
	}
}

// WithTargetNode fixes the relationship target to a single node.
func WithTargetNode(node *schema.Node) Option {
	return func(c *config) {
		c.targetNode = node
	}
}

// WithSourceOptions offers candidate source nodes in a dropdown.
func WithSourceOptions(nodes ...*schema.Node) Option {
	return func(c *config) {
		c.sourceOptions = append(c.sourceOptions, nodes...)
	}
}

// WithTargetOptions offers candidate target nodes in a dropdown.
func WithTargetOptions(nodes ...*schema.Node) Option {
	return func(c *config) {
		c.targetOptions = append(c.targetOptions, nodes...)
	}
}

// WithSourceTypes restricts the source label selector.
func WithSourceTypes(types ...*schema.NodeType) Option {
	return func(c *config) {
		c.sourceTypes = append(c.sourceTypes, types...)
	}
}

// WithTargetTypes restricts the target label selector.
func WithTargetTypes(types ...*schema.NodeType) Option {
	return func(c *config) {
		c.targetTypes = append(c.targetTypes, types...)
	}
}

// Widget maps a field descriptor to its input component. Placeholder is the
// current value shown in the widget; it is ignored for secrets.
func Widget(field schema.FieldDescriptor, placeholder any) component.FormField {
	base := component.FieldBase{
		ID:       uniqueID(),
		Name:     field.Name,
		Label:    field.DisplayLabel(),
		Required: field.Required,
	}
	if placeholder != nil && field.Type != schema.TypeSecret && field.Type != schema.TypeEnumList {
		base.Placeholder = schema.FormatValue(placeholder)
	}

	switch field.Type {
	case schema.TypeEnum, schema.TypeEnumList:
		selected := selectedValues(placeholder)
		return component.SelectField{
			FieldBase: base,
			Options:   field.Options,
			Multiple:  field.Multiple || field.Type == schema.TypeEnumList,
			Selected:  selected,
		}
	case schema.TypeDate:
		return component.DateField{FieldBase: base}
	case schema.TypeSecret:
		return component.PasswordField{FieldBase: base}
	case schema.TypeEmail:
		return component.EmailField{FieldBase: base}
	case schema.TypeHidden:
		value, _ := field.Default.(string)
		return component.HiddenField{
			FieldBase: component.FieldBase{Name: field.Name},
			Value:     value,
		}
	default:
		return component.TextAreaField{FieldBase: base}
	}
}

func selectedValues(v any) []string {
	switch value := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), value...)
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			out = append(out, schema.FormatValue(item))
		}
		return out
	default:
		return []string{schema.FormatValue(value)}
	}
}

func uniqueID() string {
	return uuid.NewString()
}

func submitButton() component.Button {
	return component.Button{Text: "Submit", Type: "submit"}
}

// tidyValues converts posted form data into construction input, dropping
// empty strings.
func tidyValues(data url.Values, fields []schema.FieldDescriptor) map[string]any {
	return schema.Tidy(schema.FormValues(data, fields))
}
