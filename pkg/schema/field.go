package schema

import "strings"

// CoreType is the semantic type of a field. It drives widget selection in the
// form synthesizer and value coercion when submissions are constructed.
type CoreType string

const (
	TypeString   CoreType = "string"
	TypeInt      CoreType = "int"
	TypeEnum     CoreType = "enum"
	TypeEnumList CoreType = "list-of-enum"
	TypeDate     CoreType = "date"
	TypeSecret   CoreType = "secret"
	TypeEmail    CoreType = "email"
	TypeHidden   CoreType = "hidden"
)

// Option is a single enum member rendered as a select option.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDescriptor describes one declared field of a node or relationship
// type.
type FieldDescriptor struct {
	Name     string   `json:"name"`
	Type     CoreType `json:"type"`
	Required bool     `json:"required"`
	// Default is applied when the field is omitted from a submission. A field
	// with a default (or explicitly marked optional) is never required.
	Default  any      `json:"default,omitempty"`
	Options  []Option `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
	Excluded bool     `json:"excluded,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// FieldOption customises a FieldDescriptor at declaration time.
type FieldOption func(*FieldDescriptor)

// Optional marks the field as not required without assigning a default.
func Optional() FieldOption {
	return func(f *FieldDescriptor) {
		f.Required = false
	}
}

// Default assigns a default value, which also makes the field optional.
func Default(value any) FieldOption {
	return func(f *FieldDescriptor) {
		f.Default = value
		f.Required = false
	}
}

// Excluded hides the field from introspection. Excluded fields are still
// accepted by construction so stores can carry derived values.
func Excluded() FieldOption {
	return func(f *FieldDescriptor) {
		f.Excluded = true
	}
}

// Label overrides the title-cased label derived from the field name.
func Label(label string) FieldOption {
	return func(f *FieldDescriptor) {
		f.Label = strings.TrimSpace(label)
	}
}

// Field declares a field of any core type. Fields are required unless an
// option says otherwise.
func Field(name string, typ CoreType, options ...FieldOption) FieldDescriptor {
	field := FieldDescriptor{
		Name:     strings.TrimSpace(name),
		Type:     typ,
		Required: true,
	}
	if typ == TypeEnumList {
		field.Multiple = true
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&field)
	}
	return field
}

// String declares a free-text field.
func String(name string, options ...FieldOption) FieldDescriptor {
	return Field(name, TypeString, options...)
}

// Int declares an integer field.
func Int(name string, options ...FieldOption) FieldDescriptor {
	return Field(name, TypeInt, options...)
}

// Date declares a calendar date field (YYYY-MM-DD).
func Date(name string, options ...FieldOption) FieldDescriptor {
	return Field(name, TypeDate, options...)
}

// Secret declares a field whose value is hashed before persistence and never
// echoed back into forms.
func Secret(name string, options ...FieldOption) FieldDescriptor {
	return Field(name, TypeSecret, options...)
}

// Email declares an e-mail address field.
func Email(name string, options ...FieldOption) FieldDescriptor {
	return Field(name, TypeEmail, options...)
}

// Enum declares a single-choice field over the supplied options.
func Enum(name string, choices []Option, options ...FieldOption) FieldDescriptor {
	field := Field(name, TypeEnum, options...)
	field.Options = cloneOptions(choices)
	return field
}

// EnumList declares a multi-choice field over the supplied options.
func EnumList(name string, choices []Option, options ...FieldOption) FieldDescriptor {
	field := Field(name, TypeEnumList, options...)
	field.Options = cloneOptions(choices)
	field.Multiple = true
	return field
}

// Hidden declares a field carrying a fixed value.
func Hidden(name, value string) FieldDescriptor {
	return FieldDescriptor{
		Name:    strings.TrimSpace(name),
		Type:    TypeHidden,
		Default: value,
	}
}

// Choices builds enum options whose labels equal their values.
func Choices(values ...string) []Option {
	out := make([]Option, 0, len(values))
	for _, value := range values {
		out = append(out, Option{Value: value, Label: value})
	}
	return out
}

// DisplayLabel returns the configured label or the title-cased field name.
func (f FieldDescriptor) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return TitleCase(f.Name)
}

// HasOption reports whether value is one of the enum members.
func (f FieldDescriptor) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// OptionLabel returns the label for an enum value, or the value itself.
func (f FieldDescriptor) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func cloneOptions(in []Option) []Option {
	if len(in) == 0 {
		return nil
	}
	out := make([]Option, len(in))
	copy(out, in)
	return out
}

func cloneFields(in []FieldDescriptor) []FieldDescriptor {
	if len(in) == 0 {
		return nil
	}
	out := make([]FieldDescriptor, len(in))
	for i, field := range in {
		field.Options = cloneOptions(field.Options)
		out[i] = field
	}
	return out
}
