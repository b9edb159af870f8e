// Package prompt collects node properties on a terminal. Answers go through
// the same node form the web pages use, so validation and secret hashing
// match a browser submission.
package prompt

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/goliatone/go-autograph/pkg/forms"
	"github.com/goliatone/go-autograph/pkg/schema"
)

// none is the select entry that leaves an optional enum unset.
const none = "(none)"

// Node asks for every field of t and builds the node. Excluded fields are
// skipped and hidden fields keep their fixed value.
func Node(ctx context.Context, d Driver, t *schema.NodeType) (*schema.Node, error) {
	if t == nil {
		return nil, fmt.Errorf("prompt: node type is nil")
	}
	if err := d.Info(ctx, "Create a "+t.Label); err != nil {
		return nil, err
	}
	data := url.Values{}
	for _, field := range t.Fields {
		if field.Excluded {
			continue
		}
		if err := ask(ctx, d, field, data); err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", field.Name, err)
		}
	}

	form, err := forms.Build(t)
	if err != nil {
		return nil, err
	}
	return form.ToModel(data)
}

func ask(ctx context.Context, d Driver, field schema.FieldDescriptor, data url.Values) error {
	message := field.DisplayLabel()
	if field.Required {
		message += "*"
	}

	switch field.Type {
	case schema.TypeHidden:
		if v, ok := field.Default.(string); ok {
			data.Set(field.Name, v)
		}
		return nil

	case schema.TypeEnum:
		labels, values := choices(field)
		if !field.Required {
			labels = append([]string{none}, labels...)
			values = append([]string{""}, values...)
		}
		idx, err := d.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			Default: slices.Index(values, defaultString(field)),
		})
		if err != nil {
			return err
		}
		if idx >= 0 && values[idx] != "" {
			data.Set(field.Name, values[idx])
		}
		return nil

	case schema.TypeEnumList:
		labels, values := choices(field)
		picked, err := d.MultiSelect(ctx, SelectConfig{Message: message, Options: labels})
		if err != nil {
			return err
		}
		for _, idx := range picked {
			if idx >= 0 && idx < len(values) {
				data.Add(field.Name, values[idx])
			}
		}
		return nil
	}

	cfg := InputConfig{
		Message:   message,
		Default:   defaultString(field),
		Validator: validator(field),
	}
	read := d.Input
	if field.Type == schema.TypeSecret {
		read = d.Password
	}
	answer, err := read(ctx, cfg)
	if err != nil {
		return err
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		data.Set(field.Name, answer)
	}
	return nil
}

// validator checks one answer in isolation: presence when required, then
// coercion.
func validator(field schema.FieldDescriptor) func(string) error {
	return func(answer string) error {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			if field.Required {
				return fmt.Errorf("%s is required", field.DisplayLabel())
			}
			return nil
		}
		if field.Type == schema.TypeSecret {
			return nil
		}
		_, err := schema.Coerce(field, answer)
		return err
	}
}

func choices(field schema.FieldDescriptor) (labels, values []string) {
	for _, opt := range field.Options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

func defaultString(field schema.FieldDescriptor) string {
	if field.Default == nil {
		return ""
	}
	return schema.FormatValue(field.Default)
}
