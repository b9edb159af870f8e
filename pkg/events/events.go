// Package events publishes graph changes. Store wraps a store.Store and emits
// one event per successful create or merge.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// Event kinds.
const (
	NodeCreated        = "node.created"
	NodeMerged         = "node.merged"
	RelationshipMerged = "relationship.merged"
	DefaultSubjectRoot = "autograph"
)

// Publisher delivers an encoded event to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, subject string, data []byte) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, subject string, data []byte) error {
	return f(ctx, subject, data)
}

// Event is the JSON payload of a change. Secret properties are masked.
type Event struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Time       time.Time      `json:"time"`
	Label      string         `json:"label,omitempty"`
	PP         string         `json:"pp,omitempty"`
	Type       string         `json:"type,omitempty"`
	Source     *store.NodeRef `json:"source,omitempty"`
	Target     *store.NodeRef `json:"target,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithSubjectRoot sets the first subject token, "autograph" by default.
func WithSubjectRoot(root string) Option {
	return func(s *Store) {
		if root = strings.Trim(root, ". "); root != "" {
			s.root = root
		}
	}
}

// WithLogger sets the logger used for failed publications.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store publishes an event after every successful write of the wrapped store.
// A failed publication is logged and does not fail the write.
type Store struct {
	store.Store
	publisher Publisher
	root      string
	logger    *zap.SugaredLogger
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps st.
func New(st store.Store, publisher Publisher, options ...Option) *Store {
	s := &Store{
		Store:     st,
		publisher: publisher,
		root:      DefaultSubjectRoot,
		logger:    zap.NewNop().Sugar(),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Subject is the subject of an event: <root>.<kind>.<label or tag>.
func (s *Store) Subject(e Event) string {
	name := e.Label
	if e.Type != "" {
		name = e.Type
	}
	return s.root + "." + e.Kind + "." + name
}

// Create implements store.Writer.
func (s *Store) Create(ctx context.Context, n *schema.Node) error {
	if err := s.Store.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, s.nodeEvent(NodeCreated, n))
	return nil
}

// Merge implements store.Writer.
func (s *Store) Merge(ctx context.Context, n *schema.Node) error {
	if err := s.Store.Merge(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, s.nodeEvent(NodeMerged, n))
	return nil
}

// MergeRelationship implements store.Writer.
func (s *Store) MergeRelationship(ctx context.Context, rel *schema.Relationship) error {
	if err := s.Store.MergeRelationship(ctx, rel); err != nil {
		return err
	}
	source, target := store.Ref(rel.Source), store.Ref(rel.Target)
	s.publish(ctx, Event{
		ID:         uuid.NewString(),
		Kind:       RelationshipMerged,
		Time:       s.now().UTC(),
		Type:       rel.Tag(),
		Source:     &source,
		Target:     &target,
		Properties: maskedProperties(rel),
	})
	return nil
}

func (s *Store) nodeEvent(kind string, n *schema.Node) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Time:       s.now().UTC(),
		Label:      n.Label(),
		PP:         n.PP(),
		Properties: n.Dump(),
	}
}

func (s *Store) publish(ctx context.Context, e Event) {
	if s.publisher == nil {
		return
	}
	subject := s.Subject(e)
	data, err := json.Marshal(e)
	if err == nil {
		err = s.publisher.Publish(ctx, subject, data)
	}
	if err != nil {
		s.logger.Warnw("event not published", "subject", subject, "error", err)
	}
}

func maskedProperties(rel *schema.Relationship) map[string]any {
	if len(rel.Properties) == 0 {
		return nil
	}
	out := make(map[string]any, len(rel.Properties))
	for k, v := range rel.Properties {
		if field, ok := rel.Type.Property(k); ok && field.Type == schema.TypeSecret {
			v = schema.SecretMask
		}
		out[k] = v
	}
	return out
}

// Decode parses an event payload.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("events: decode: %w", err)
	}
	return e, nil
}
