package forms

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
)

// Keys carried by relationship forms besides the relationship properties.
const (
	FieldRelationshipType = "relationship_type"
	FieldSource           = "source"
	FieldSourceType       = "source_type"
	FieldTarget           = "target"
	FieldTargetType       = "target_type"
)

// ErrUnresolved is returned by resolvers when a submitted node does not exist
// or its label is unknown.
var ErrUnresolved = errors.New("forms: node not resolved")

// Resolver turns a submitted (label, primary property) pair back into a live
// node.
type Resolver interface {
	Resolve(ctx context.Context, label, pp string) (*schema.Node, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, label, pp string) (*schema.Node, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, label, pp string) (*schema.Node, error) {
	return f(ctx, label, pp)
}

// RelationshipForm is a synthesised form creating one relationship type.
type RelationshipForm struct {
	Type          *schema.RelationshipType
	Action        string
	Method        string
	Fields        []component.Component
	TargetOptions []*schema.Node

	resolver Resolver
	excluded []string
}

var _ component.Component = (*RelationshipForm)(nil)

// BuildRelationship synthesises a relationship form: the hidden type tag, a
// node and label selector for each end, the property widgets and a submit
// button.
func BuildRelationship(rt *schema.RelationshipType, resolver Resolver, options ...Option) (*RelationshipForm, error) {
	if rt == nil {
		return nil, fmt.Errorf("forms: relationship type is nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("forms: %s form needs a node resolver", rt.Type)
	}
	cfg := newConfig(options)
	form := &RelationshipForm{
		Type:          rt,
		Action:        cfg.action,
		Method:        cfg.method,
		TargetOptions: append([]*schema.Node(nil), cfg.targetOptions...),
		resolver:      resolver,
		excluded:      cfg.excludedNames(),
	}

	form.Fields = append(form.Fields, component.HiddenField{
		FieldBase: component.FieldBase{Name: FieldRelationshipType},
		Value:     rt.Type,
	})
	form.Fields = append(form.Fields, endpointFields(FieldSource, cfg.sourceNode, cfg.sourceOptions, cfg.sourceTypes)...)
	form.Fields = append(form.Fields, endpointFields(FieldTarget, cfg.targetNode, cfg.targetOptions, cfg.targetTypes)...)
	for _, field := range schema.DescribeRelationship(rt, form.excluded...) {
		form.Fields = append(form.Fields, Widget(field, nil))
	}
	form.Fields = append(form.Fields, submitButton())
	return form, nil
}

// endpointFields builds the node selector and label selector of one end.
func endpointFields(name string, fixed *schema.Node, candidates []*schema.Node, types []*schema.NodeType) []component.Component {
	nodeLabel := schema.TitleCase(name) + " Node"
	typeName := name + "_type"
	typeLabel := schema.TitleCase(name) + " Label"

	var labels []string
	var out []component.Component
	switch {
	case fixed != nil:
		out = append(out, component.SelectField{
			FieldBase: component.FieldBase{ID: uniqueID(), Name: name, Label: nodeLabel},
			Options:   []schema.Option{{Value: fixed.PP(), Label: fixed.String()}},
			Selected:  []string{fixed.PP()},
		})
		labels = []string{fixed.Label()}
	case len(candidates) > 0:
		options := make([]schema.Option, 0, len(candidates))
		for _, n := range candidates {
			options = append(options, schema.Option{Value: n.PP(), Label: n.String()})
			labels = appendLabel(labels, n.Label())
		}
		out = append(out, component.SelectField{
			FieldBase: component.FieldBase{ID: uniqueID(), Name: name, Label: nodeLabel, Required: true},
			Options:   options,
		})
	default:
		out = append(out, component.StringField{
			FieldBase: component.FieldBase{ID: uniqueID(), Name: name, Label: nodeLabel, Required: true},
		})
	}

	if len(labels) == 0 {
		for _, t := range types {
			if t != nil {
				labels = appendLabel(labels, t.Label)
			}
		}
	}
	if len(labels) > 0 {
		out = append(out, component.SelectField{
			FieldBase: component.FieldBase{ID: uniqueID(), Name: typeName, Label: typeLabel, Required: true},
			Options:   schema.Choices(labels...),
		})
	} else {
		out = append(out, component.StringField{
			FieldBase: component.FieldBase{ID: uniqueID(), Name: typeName, Label: typeLabel, Required: true},
		})
	}
	return out
}

func appendLabel(labels []string, label string) []string {
	for _, existing := range labels {
		if existing == label {
			return labels
		}
	}
	return append(labels, label)
}

// Validate reports whether data resolves both ends and constructs a valid
// relationship.
func (f *RelationshipForm) Validate(ctx context.Context, data url.Values) bool {
	_, err := f.ToModel(ctx, data)
	return err == nil
}

// ToModel resolves the submitted ends and constructs the relationship. Missing
// or unknown ends are reported as a *schema.ValidationError. Other resolver
// errors are returned wrapped, so storage failures are not taken for bad input.
func (f *RelationshipForm) ToModel(ctx context.Context, data url.Values) (*schema.Relationship, error) {
	if f == nil || f.Type == nil {
		return nil, fmt.Errorf("forms: form has no relationship type")
	}
	values := tidyValues(data, f.Type.Properties)

	var problems []schema.Problem
	source, problem, err := f.resolve(ctx, values, FieldSource, FieldSourceType)
	if err != nil {
		return nil, err
	}
	if problem != nil {
		problems = append(problems, *problem)
	}
	target, problem, err := f.resolve(ctx, values, FieldTarget, FieldTargetType)
	if err != nil {
		return nil, err
	}
	if problem != nil {
		problems = append(problems, *problem)
	}
	if len(problems) > 0 {
		return nil, &schema.ValidationError{Subject: f.Type.Type, Problems: problems}
	}

	for _, key := range []string{FieldSource, FieldSourceType, FieldTarget, FieldTargetType, FieldRelationshipType} {
		delete(values, key)
	}
	return f.Type.New(source, target, values)
}

func (f *RelationshipForm) resolve(ctx context.Context, values map[string]any, nodeKey, typeKey string) (*schema.Node, *schema.Problem, error) {
	pp, _ := values[nodeKey].(string)
	label, _ := values[typeKey].(string)
	if pp == "" {
		return nil, &schema.Problem{Field: nodeKey, Reason: "field required"}, nil
	}
	if label == "" {
		return nil, &schema.Problem{Field: typeKey, Reason: "field required"}, nil
	}
	node, err := f.resolver.Resolve(ctx, label, pp)
	switch {
	case errors.Is(err, ErrUnresolved), err == nil && node == nil:
		return nil, &schema.Problem{Field: nodeKey, Reason: fmt.Sprintf("%s %q not found", label, pp)}, nil
	case err != nil:
		return nil, nil, fmt.Errorf("forms: resolve %s %q: %w", label, pp, err)
	}
	return node, nil, nil
}

// Form returns the plain form component.
func (f *RelationshipForm) Form() *component.Form {
	return &component.Form{Action: f.Action, Method: f.Method, Fields: f.Fields}
}

// Collapsible wraps the form in an accordion item titled by the relationship
// type. Types without target candidates are flagged with a warning icon.
func (f *RelationshipForm) Collapsible() *component.CollapsibleForm {
	return &component.CollapsibleForm{
		ID:      f.Type.Type,
		Title:   f.Type.Type,
		Warning: len(f.TargetOptions) == 0,
		Form:    f.Form(),
	}
}

func (f *RelationshipForm) Tags() component.Tags { return f.Form().Tags() }

func (f *RelationshipForm) Render(r *component.Renderer) (string, error) {
	return f.Form().Render(r)
}
