package forms

import (
	"fmt"
	"net/url"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
)

// NodeForm is a synthesised form for one node type. It renders as a
// component and validates submissions against the same type.
type NodeForm struct {
	Type   *schema.NodeType
	Action string
	Method string
	Fields []component.Component
}

var _ component.Component = (*NodeForm)(nil)

// Build synthesises a form with one widget per visible field of t followed by
// a submit button.
func Build(t *schema.NodeType, options ...Option) (*NodeForm, error) {
	if t == nil {
		return nil, fmt.Errorf("forms: node type is nil")
	}
	cfg := newConfig(options)

	formType := t
	if len(cfg.extraFields) > 0 {
		composite, err := t.Extend(cfg.extraFields...)
		if err != nil {
			return nil, fmt.Errorf("forms: extend %s: %w", t.Label, err)
		}
		formType = composite
	}

	var defaults map[string]any
	if cfg.defaultInstance != nil {
		defaults = cfg.defaultInstance.Properties
	}

	form := &NodeForm{Type: formType, Action: cfg.action, Method: cfg.method}
	for _, field := range schema.Describe(formType, cfg.excludedNames()...) {
		form.Fields = append(form.Fields, Widget(field, defaults[field.Name]))
	}
	form.Fields = append(form.Fields, submitButton())
	return form, nil
}

// MustBuild is Build for types known to be valid.
func MustBuild(t *schema.NodeType, options ...Option) *NodeForm {
	form, err := Build(t, options...)
	if err != nil {
		panic(err)
	}
	return form
}

// Values returns the construction input for a submission: the first value per
// key, every value for multi-select fields, empty strings removed.
func (f *NodeForm) Values(data url.Values) map[string]any {
	return tidyValues(data, f.Type.Fields)
}

// Validate reports whether data constructs a valid node.
func (f *NodeForm) Validate(data url.Values) bool {
	_, err := f.ToModel(data)
	return err == nil
}

// ToModel constructs the submitted node. The error is a
// *schema.ValidationError when the data does not fit the type.
func (f *NodeForm) ToModel(data url.Values) (*schema.Node, error) {
	if f == nil || f.Type == nil {
		return nil, fmt.Errorf("forms: form has no node type")
	}
	return f.Type.New(f.Values(data))
}

// Form returns the form component.
func (f *NodeForm) Form() *component.Form {
	return &component.Form{Action: f.Action, Method: f.Method, Fields: f.Fields}
}

func (f *NodeForm) Tags() component.Tags { return f.Form().Tags() }

func (f *NodeForm) Render(r *component.Renderer) (string, error) {
	return f.Form().Render(r)
}
