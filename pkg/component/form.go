package component

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/goliatone/go-autograph/pkg/schema"
)

// FieldBase carries the attributes shared by input widgets.
type FieldBase struct {
	ID          string
	Name        string
	Label       string
	Required    bool
	Placeholder string
	Disabled    bool
	ReadOnly    bool
}

func (f FieldBase) context() map[string]any {
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	label := f.Label
	if label == "" {
		label = "Input Field"
	}
	return map[string]any{
		"id":          id,
		"name":        f.Name,
		"label":       label,
		"required":    f.Required,
		"placeholder": f.Placeholder,
		"disabled":    f.Disabled,
		"readonly":    f.ReadOnly,
	}
}

// FieldName returns the submitted form key.
func (f FieldBase) FieldName() string { return f.Name }

// FormField is implemented by every input widget.
type FormField interface {
	Component
	FieldName() string
}

func inputRender(r *Renderer, f FieldBase, inputType string) (string, error) {
	ctx := f.context()
	ctx["type"] = inputType
	return r.Execute("input", ctx)
}

// StringField is a single-line text input.
type StringField struct{ FieldBase }

func (f StringField) Tags() Tags                         { return Tags{} }
func (f StringField) Render(r *Renderer) (string, error) { return inputRender(r, f.FieldBase, "text") }

// EmailField is an e-mail input.
type EmailField struct{ FieldBase }

func (f EmailField) Tags() Tags                         { return Tags{} }
func (f EmailField) Render(r *Renderer) (string, error) { return inputRender(r, f.FieldBase, "email") }

// PasswordField is a password input.
type PasswordField struct{ FieldBase }

func (f PasswordField) Tags() Tags { return Tags{} }
func (f PasswordField) Render(r *Renderer) (string, error) {
	return inputRender(r, f.FieldBase, "password")
}

// DateField is a date picker.
type DateField struct{ FieldBase }

func (f DateField) Tags() Tags                         { return Tags{} }
func (f DateField) Render(r *Renderer) (string, error) { return inputRender(r, f.FieldBase, "date") }

// TextAreaField is a multi-line text input pre-filled with its placeholder.
type TextAreaField struct {
	FieldBase
	Rows int
}

func (f TextAreaField) Tags() Tags { return Tags{} }

func (f TextAreaField) Render(r *Renderer) (string, error) {
	ctx := f.FieldBase.context()
	rows := f.Rows
	if rows <= 0 {
		rows = 1
	}
	ctx["rows"] = strconv.Itoa(rows)
	return r.Execute("textarea", ctx)
}

// SelectField is a dropdown. A blank option is prepended unless the field is
// required or multiple. Options matching Selected are preselected.
type SelectField struct {
	FieldBase
	Options  []schema.Option
	Multiple bool
	Selected []string
}

func (f SelectField) Tags() Tags { return Tags{} }

func (f SelectField) Render(r *Renderer) (string, error) {
	ctx := f.FieldBase.context()
	selected := make(map[string]bool, len(f.Selected))
	for _, v := range f.Selected {
		selected[v] = true
	}
	options := make([]map[string]any, 0, len(f.Options))
	for _, opt := range f.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		options = append(options, map[string]any{
			"value":    opt.Value,
			"label":    label,
			"selected": selected[opt.Value],
		})
	}
	ctx["options"] = options
	ctx["multiple"] = f.Multiple
	ctx["blank"] = !f.Required && !f.Multiple
	return r.Execute("select", ctx)
}

// HiddenField carries a fixed value.
type HiddenField struct {
	FieldBase
	Value string
}

func (f HiddenField) Tags() Tags { return Tags{} }

func (f HiddenField) Render(r *Renderer) (string, error) {
	ctx := f.FieldBase.context()
	ctx["value"] = f.Value
	return r.Execute("hidden", ctx)
}

// Button is a form button, a submit button by default.
type Button struct {
	Text string
	Type string
}

func (b Button) Tags() Tags { return Tags{} }

func (b Button) Render(r *Renderer) (string, error) {
	return r.Execute("button", map[string]any{
		"text": defaultString(b.Text, "Submit"),
		"type": defaultString(b.Type, "submit"),
	})
}

// Form wraps fields in a form element.
type Form struct {
	Action string
	Method string
	Fields []Component
}

func (f *Form) Tags() Tags { return MergeTags(Tags{}, f.Fields...) }

func (f *Form) Render(r *Renderer) (string, error) {
	fields, err := r.renderEach(f.Fields)
	if err != nil {
		return "", err
	}
	return r.Execute("form", map[string]any{
		"action": f.Action,
		"method": f.Method,
		"fields": fields,
	})
}

// CollapsibleForm shows a form inside an accordion item titled by Title.
// Warning adds an alert icon to the header.
type CollapsibleForm struct {
	ID      string
	Title   string
	Warning bool
	Form    *Form
}

func (c *CollapsibleForm) Tags() Tags {
	if c.Form == nil {
		return Tags{}
	}
	return c.Form.Tags()
}

func (c *CollapsibleForm) Render(r *Renderer) (string, error) {
	form := ""
	if c.Form != nil {
		html, err := r.Render(c.Form)
		if err != nil {
			return "", err
		}
		form = html
	}
	id := c.ID
	if id == "" {
		id = jsIdent(c.Title)
	}
	return r.Execute("collapsible_form", map[string]any{
		"id":      id,
		"title":   c.Title,
		"warning": c.Warning,
		"form":    form,
	})
}
