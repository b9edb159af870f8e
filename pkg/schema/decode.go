package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeProperties unmarshals a JSON object of property values back into
// canonical values: integers become int64 and lists of strings become
// []string. Stores use it to restore persisted nodes.
func DecodeProperties(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("schema: decode properties: %w", err)
	}
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		out[key] = canonical(value)
	}
	return out, nil
}

func canonical(value any) any {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				out := make([]any, len(v))
				for i, entry := range v {
					out[i] = canonical(entry)
				}
				return out
			}
			strs = append(strs, s)
		}
		return strs
	default:
		return v
	}
}
