package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a raw import file and where it was read from.
type Document struct {
	location string
	format   Format
	raw      []byte
}

// NewDocument wraps raw. Empty payloads are rejected.
func NewDocument(location string, format Format, raw []byte) (Document, error) {
	if location == "" {
		return Document{}, errors.New("transfer: document location is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("transfer: document is empty")
	}
	return Document{location: location, format: format, raw: append([]byte(nil), raw...)}, nil
}

// Location is the path the document was read from.
func (d Document) Location() string {
	return d.location
}

// Records decodes the document into records.
func (d Document) Records() ([]Record, error) {
	switch d.format {
	case FormatMarkdown:
		rec, err := decodeMarkdown(d.raw)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	case FormatYAML:
		return decodeYAML(d.raw)
	case FormatJSON:
		return decodeJSON(d.raw)
	}
	return nil, fmt.Errorf("transfer: unknown format %q", d.format)
}

// decodeMarkdown reads YAML front matter between "---" lines. The body is
// stored under the property named by BODY_PROPERTY, if any.
func decodeMarkdown(raw []byte) (Record, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.HasPrefix(text, "---\n") {
		return nil, errors.New("missing front matter")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, errors.New("unterminated front matter")
	}
	front, body := rest[:end], rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	rec := Record{}
	if err := yaml.Unmarshal([]byte(front), &rec); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if prop, ok := rec.reserved(BodyPropertyKey); ok {
		rec[prop] = strings.TrimSpace(body)
	}
	return rec, nil
}

// decodeYAML accepts a record or a list of records per YAML document.
func decodeYAML(raw []byte) ([]Record, error) {
	var out []Record
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		recs, err := toRecords(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// decodeJSON accepts a record or an array of records. Numbers keep their
// literal form until coerced by the node type.
func decodeJSON(raw []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return toRecords(doc)
}

func toRecords(doc any) ([]Record, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []Record{v}, nil
	case []any:
		out := make([]Record, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entry %d is %T, not a mapping", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a mapping or a list, got %T", doc)
}
