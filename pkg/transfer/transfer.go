// Package transfer moves graph data between a store and a filesystem: bulk
// import of Markdown, YAML and JSON records, JSON export, and freezing the
// served pages into static files.
package transfer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// ErrSchemaMapping marks records that do not map onto a registered type.
var ErrSchemaMapping = errors.New("transfer: schema mapping failed")

// Reserved record keys.
const (
	LabelKey            = "LABEL"
	BodyPropertyKey     = "BODY_PROPERTY"
	RelationshipTypeKey = "RELATIONSHIP_TYPE"
	SourceKey           = "source"
	TargetKey           = "target"
)

// Format selects the files read by an import.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatYAML     Format = "yml"
	FormatJSON     Format = "json"
)

// ParseFormat accepts md, yml, yaml and json in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "yml", "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("transfer: unknown format %q", s)
}

func (f Format) extensions() []string {
	switch f {
	case FormatYAML:
		return []string{".yml", ".yaml"}
	case FormatJSON:
		return []string{".json"}
	default:
		return []string{".md"}
	}
}

// Record is one decoded import entry: node properties plus reserved keys.
type Record map[string]any

func (r Record) reserved(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// without returns the record minus the given reserved keys.
func (r Record) without(keys ...string) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if slices.Contains(keys, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// RecordError reports a record that could not be decoded, mapped or written.
// Index is -1 when the whole file failed.
type RecordError struct {
	File  string
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transfer: %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("transfer: %s[%d]: %v", e.File, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Option configures the transfer operations.
type Option func(*options)

type options struct {
	validateOnly bool
	logger       *zap.SugaredLogger
}

func newOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// WithValidateOnly maps and validates records without writing them.
func WithValidateOnly(validate bool) Option {
	return func(o *options) {
		o.validateOnly = validate
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
