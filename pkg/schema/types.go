package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errLabelRequired           = errors.New("schema: primary label is required")
	errPrimaryPropertyRequired = errors.New("schema: primary property is required")
	errRelationshipTagRequired = errors.New("schema: relationship type tag is required")
	errRelationshipEnds        = errors.New("schema: relationship source and target types are required")
)

// NodeType is the static schema of a graph node: its primary label, the field
// acting as identity and the ordered field list.
type NodeType struct {
	Label           string
	PrimaryProperty string
	// Display names the field used as the node's string form. Defaults to the
	// primary property.
	Display string
	Fields  []FieldDescriptor
}

// TypeOption configures a NodeType under construction.
type TypeOption func(*NodeType)

// WithFields appends field descriptors in declaration order.
func WithFields(fields ...FieldDescriptor) TypeOption {
	return func(t *NodeType) {
		t.Fields = append(t.Fields, fields...)
	}
}

// WithDisplay selects the field used when a node is rendered as text.
func WithDisplay(property string) TypeOption {
	return func(t *NodeType) {
		t.Display = strings.TrimSpace(property)
	}
}

// NewNodeType validates and returns a node type. The primary property must be
// one of the declared fields and must be required.
func NewNodeType(label, primaryProperty string, options ...TypeOption) (*NodeType, error) {
	t := &NodeType{
		Label:           strings.TrimSpace(label),
		PrimaryProperty: strings.TrimSpace(primaryProperty),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNodeType is NewNodeType for package-level declarations.
func MustNodeType(label, primaryProperty string, options ...TypeOption) *NodeType {
	t, err := NewNodeType(label, primaryProperty, options...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *NodeType) validate() error {
	if t.Label == "" {
		return errLabelRequired
	}
	if t.PrimaryProperty == "" {
		return errPrimaryPropertyRequired
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, field := range t.Fields {
		if field.Name == "" {
			return fmt.Errorf("schema: %s declares a field without a name", t.Label)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("schema: %s declares field %q twice", t.Label, field.Name)
		}
		seen[field.Name] = struct{}{}
	}
	pp, ok := t.Field(t.PrimaryProperty)
	if !ok {
		return fmt.Errorf("schema: %s primary property %q is not a declared field", t.Label, t.PrimaryProperty)
	}
	if !pp.Required {
		return fmt.Errorf("schema: %s primary property %q must be required", t.Label, t.PrimaryProperty)
	}
	if t.Display == "" {
		t.Display = t.PrimaryProperty
	}
	if _, ok := t.Field(t.Display); !ok {
		return fmt.Errorf("schema: %s display property %q is not a declared field", t.Label, t.Display)
	}
	return nil
}

// Field returns the descriptor with the given name.
func (t *NodeType) Field(name string) (FieldDescriptor, bool) {
	if t == nil {
		return FieldDescriptor{}, false
	}
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Extend returns a composite type that carries the base fields followed by
// the supplied ad hoc fields. Label and identity are unchanged so nodes built
// from the composite can be projected back onto the base with Node.As.
func (t *NodeType) Extend(extra ...FieldDescriptor) (*NodeType, error) {
	if t == nil {
		return nil, errors.New("schema: cannot extend a nil node type")
	}
	composite := &NodeType{
		Label:           t.Label,
		PrimaryProperty: t.PrimaryProperty,
		Display:         t.Display,
		Fields:          append(cloneFields(t.Fields), cloneFields(extra)...),
	}
	if err := composite.validate(); err != nil {
		return nil, err
	}
	return composite, nil
}

// RelationshipType is the static schema of a typed edge.
type RelationshipType struct {
	Type       string
	Source     *NodeType
	Target     *NodeType
	Properties []FieldDescriptor
}

// NewRelationshipType validates and returns a relationship type.
func NewRelationshipType(tag string, source, target *NodeType, properties ...FieldDescriptor) (*RelationshipType, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, errRelationshipTagRequired
	}
	if source == nil || target == nil {
		return nil, errRelationshipEnds
	}
	seen := make(map[string]struct{}, len(properties))
	for _, prop := range properties {
		switch prop.Name {
		case "", "source", "target":
			return nil, fmt.Errorf("schema: %s declares reserved property name %q", tag, prop.Name)
		}
		if _, dup := seen[prop.Name]; dup {
			return nil, fmt.Errorf("schema: %s declares property %q twice", tag, prop.Name)
		}
		seen[prop.Name] = struct{}{}
	}
	return &RelationshipType{
		Type:       tag,
		Source:     source,
		Target:     target,
		Properties: cloneFields(properties),
	}, nil
}

// MustRelationshipType is NewRelationshipType for package-level declarations.
func MustRelationshipType(tag string, source, target *NodeType, properties ...FieldDescriptor) *RelationshipType {
	rt, err := NewRelationshipType(tag, source, target, properties...)
	if err != nil {
		panic(err)
	}
	return rt
}

// Property returns the relationship property with the given name.
func (r *RelationshipType) Property(name string) (FieldDescriptor, bool) {
	if r == nil {
		return FieldDescriptor{}, false
	}
	for _, prop := range r.Properties {
		if prop.Name == name {
			return prop, true
		}
	}
	return FieldDescriptor{}, false
}
