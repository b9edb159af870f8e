package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical encoding of date values.
const DateLayout = "2006-01-02"

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("schema: validation failed")

// Problem describes why one field was rejected.
type Problem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists the problems found while constructing an instance.
type ValidationError struct {
	Subject  string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return fmt.Sprintf("schema: invalid %s: %s", e.Subject, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Tidy drops entries whose value is the empty string. Empty strings inside
// lists are removed too, and a list left empty is dropped.
func Tidy(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case string:
			if v == "" {
				continue
			}
		case []string:
			kept := make([]string, 0, len(v))
			for _, item := range v {
				if item != "" {
					kept = append(kept, item)
				}
			}
			if len(kept) == 0 {
				continue
			}
			value = kept
		}
		out[key] = value
	}
	return out
}

// FormValues converts submitted form data into construction input. Fields
// flagged multi-select keep every submitted value; every other key keeps its
// first value.
func FormValues(data url.Values, fields []FieldDescriptor) map[string]any {
	multiple := make(map[string]bool, len(fields))
	for _, field := range fields {
		multiple[field.Name] = field.Multiple
	}
	out := make(map[string]any, len(data))
	for key, values := range data {
		if len(values) == 0 {
			continue
		}
		if multiple[key] {
			out[key] = append([]string(nil), values...)
			continue
		}
		out[key] = values[0]
	}
	return out
}

// New constructs a node from raw values. Keys that are not declared fields are
// ignored.
func (t *NodeType) New(values map[string]any) (*Node, error) {
	if t == nil {
		return nil, errors.New("schema: node type is nil")
	}
	props, problems := coerceFields(t.Fields, values)
	if len(problems) > 0 {
		return nil, &ValidationError{Subject: t.Label, Problems: problems}
	}
	return &Node{Type: t, Properties: props}, nil
}

// New constructs a relationship between two resolved nodes. The endpoints
// must carry the declared source and target labels.
func (r *RelationshipType) New(source, target *Node, values map[string]any) (*Relationship, error) {
	if r == nil {
		return nil, errors.New("schema: relationship type is nil")
	}
	var problems []Problem
	if source == nil {
		problems = append(problems, Problem{Field: "source", Reason: "node required"})
	} else if source.Label() != r.Source.Label {
		problems = append(problems, Problem{Field: "source", Reason: fmt.Sprintf("expected %s, got %s", r.Source.Label, source.Label())})
	}
	if target == nil {
		problems = append(problems, Problem{Field: "target", Reason: "node required"})
	} else if target.Label() != r.Target.Label {
		problems = append(problems, Problem{Field: "target", Reason: fmt.Sprintf("expected %s, got %s", r.Target.Label, target.Label())})
	}
	props, propProblems := coerceFields(r.Properties, values)
	problems = append(problems, propProblems...)
	if len(problems) > 0 {
		return nil, &ValidationError{Subject: r.Type, Problems: problems}
	}
	return &Relationship{Type: r, Source: source, Target: target, Properties: props}, nil
}

func coerceFields(fields []FieldDescriptor, values map[string]any) (map[string]any, []Problem) {
	props := make(map[string]any, len(fields))
	var problems []Problem
	for _, field := range fields {
		raw, present := values[field.Name]
		if !present || raw == nil {
			if field.Default != nil {
				raw = field.Default
			} else {
				if field.Required {
					problems = append(problems, Problem{Field: field.Name, Reason: "field required"})
				}
				continue
			}
		}
		value, err := Coerce(field, raw)
		if err != nil {
			problems = append(problems, Problem{Field: field.Name, Reason: err.Error()})
			continue
		}
		props[field.Name] = value
	}
	return props, problems
}

// Coerce converts a raw value into the canonical representation for field.
func Coerce(field FieldDescriptor, raw any) (any, error) {
	switch field.Type {
	case TypeEnumList:
		items, err := toStrings(raw)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if !field.HasOption(item) {
				return nil, fmt.Errorf("%q is not a valid choice", item)
			}
		}
		return items, nil
	case TypeInt:
		return toInt(raw)
	}

	s, err := toScalarString(raw)
	if err != nil {
		return nil, err
	}
	switch field.Type {
	case TypeEnum:
		if !field.HasOption(s) {
			return nil, fmt.Errorf("%q is not a valid choice", s)
		}
		return s, nil
	case TypeDate:
		if tv, ok := raw.(time.Time); ok {
			return tv.Format(DateLayout), nil
		}
		return parseDate(s)
	case TypeEmail:
		addr, err := mail.ParseAddress(strings.TrimSpace(s))
		if err != nil || addr.Name != "" || addr.Address != strings.TrimSpace(s) {
			return nil, fmt.Errorf("%q is not a valid e-mail address", s)
		}
		return addr.Address, nil
	case TypeSecret:
		if IsHashedSecret(s) {
			return s, nil
		}
		return HashSecret(s)
	case TypeHidden:
		if fixed, ok := field.Default.(string); ok && fixed != "" && s != fixed {
			return nil, fmt.Errorf("expected fixed value %q", fixed)
		}
		return s, nil
	default:
		return s, nil
	}
}

func toScalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []string:
		if len(v) == 1 {
			return v[0], nil
		}
		return "", errors.New("expected a single value")
	case []any:
		if len(v) == 1 {
			return toScalarString(v[0])
		}
		return "", errors.New("expected a single value")
	case json.Number:
		return v.String(), nil
	case int, int64, float64, bool:
		return FormatValue(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("unsupported value %T", raw)
	}
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := toScalarString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
}

func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	}
	s, err := toScalarString(raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DateLayout), nil
	}
	return "", fmt.Errorf("%q is not a date", s)
}
