// Package viewset derives URLs, view names, titles and breadcrumbs for the
// pages of one node type. Everything except MatchNodes and MatchNode is a pure
// function of the node type and the viewset options.
package viewset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// DefaultName prefixes the view names of viewsets created without WithName.
const DefaultName = "Viewset"

// DefaultEndpointCrumb titles the last breadcrumb of an endpoint page.
const DefaultEndpointCrumb = "here"

// ErrNoStore is returned by the match helpers of a viewset without a store.
var ErrNoStore = errors.New("viewset: no store configured")

// Home is the default parent chain.
var Home = component.LinkData{URL: "/", Title: "Home"}

// Option customises a Viewset.
type Option func(*Viewset)

// Viewset names the pages of a node type: a list page, an item page per node
// and endpoint pages hanging off each item.
type Viewset struct {
	Type *schema.NodeType

	name            string
	title           string
	slug            string
	itemSegment     string
	parents         []component.LinkData
	reader          store.Reader
	itemDescription func(*schema.Node) string
	listDescription string
}

// New creates a viewset for t.
func New(t *schema.NodeType, options ...Option) *Viewset {
	vs := &Viewset{
		Type:    t,
		name:    DefaultName,
		parents: []component.LinkData{Home},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(vs)
	}
	return vs
}

// WithName sets the prefix of the generated view names.
func WithName(name string) Option {
	return func(vs *Viewset) {
		if name != "" {
			vs.name = name
		}
	}
}

// WithTitle overrides the list title, the node label by default.
func WithTitle(title string) Option {
	return func(vs *Viewset) {
		vs.title = title
	}
}

// WithSlug overrides the list slug, the list title by default.
func WithSlug(slug string) Option {
	return func(vs *Viewset) {
		vs.slug = slug
	}
}

// WithParents replaces the parent chain. The last parent's URL becomes the
// base of every URL of the viewset.
func WithParents(parents ...component.LinkData) Option {
	return func(vs *Viewset) {
		vs.parents = append([]component.LinkData(nil), parents...)
	}
}

// WithItemSegment inserts a fixed path segment between the list URL and the
// primary property of item URLs.
func WithItemSegment(segment string) Option {
	return func(vs *Viewset) {
		vs.itemSegment = strings.Trim(segment, "/")
	}
}

// WithStore sets the reader used by MatchNodes and MatchNode.
func WithStore(reader store.Reader) Option {
	return func(vs *Viewset) {
		vs.reader = reader
	}
}

// WithListDescription overrides the list description.
func WithListDescription(description string) Option {
	return func(vs *Viewset) {
		vs.listDescription = description
	}
}

// WithItemDescription derives item descriptions from the node.
func WithItemDescription(fn func(*schema.Node) string) Option {
	return func(vs *Viewset) {
		vs.itemDescription = fn
	}
}

// Parents returns a copy of the parent chain.
func (vs *Viewset) Parents() []component.LinkData {
	return append([]component.LinkData(nil), vs.parents...)
}

// BaseURL is the last parent's URL, "/" when there is none.
func (vs *Viewset) BaseURL() string {
	if len(vs.parents) > 0 {
		if base := vs.parents[len(vs.parents)-1].URL; base != "" {
			return base
		}
	}
	return "/"
}

// ListTitle returns the title override or the node label.
func (vs *Viewset) ListTitle() string {
	if vs.title != "" {
		return vs.title
	}
	return vs.Type.Label
}

// ListSlug returns the slug override or the list title.
func (vs *Viewset) ListSlug() string {
	if vs.slug != "" {
		return vs.slug
	}
	return vs.ListTitle()
}

// ListURL is BaseURL followed by the escaped slug and a trailing slash.
func (vs *Viewset) ListURL() string {
	return vs.BaseURL() + escapeSegments(vs.ListSlug()) + "/"
}

// ListSubtitle is empty unless a custom page sets one.
func (vs *Viewset) ListSubtitle() string { return "" }

// ListDescription defaults to "Find out more about <title>".
func (vs *Viewset) ListDescription() string {
	if vs.listDescription != "" {
		return vs.listDescription
	}
	return "Find out more about " + vs.ListTitle()
}

// ListViewName is "<name>-<label>-list".
func (vs *Viewset) ListViewName() string {
	return fmt.Sprintf("%s-%s-list", vs.name, vs.Type.Label)
}

// ItemURLPattern is the list URL followed by the placeholder segment.
func (vs *Viewset) ItemURLPattern() string {
	base := vs.ListURL()
	if vs.itemSegment != "" {
		base += escapeSegments(vs.itemSegment) + "/"
	}
	return base + component.URLPlaceholder + "/"
}

// PPToURL fills the item pattern with the escaped primary property.
func (vs *Viewset) PPToURL(pp string) string {
	return fill(vs.ItemURLPattern(), pp)
}

// NodeURL returns the item URL of n.
func (vs *Viewset) NodeURL(n *schema.Node) string {
	return vs.PPToURL(n.PP())
}

// ItemTitle is the node's display string.
func (vs *Viewset) ItemTitle(n *schema.Node) string {
	return n.String()
}

// ItemSubtitle is the list title.
func (vs *Viewset) ItemSubtitle(*schema.Node) string {
	return vs.ListTitle()
}

// ItemDescription is empty unless WithItemDescription is set.
func (vs *Viewset) ItemDescription(n *schema.Node) string {
	if vs.itemDescription == nil {
		return ""
	}
	return vs.itemDescription(n)
}

// ItemViewName is "<name>-<label>-item".
func (vs *Viewset) ItemViewName() string {
	return fmt.Sprintf("%s-%s-item", vs.name, vs.Type.Label)
}

// EndpointViewName is "<name>-<label>-<endpoint>-endpoint".
func (vs *Viewset) EndpointViewName(endpoint string) string {
	return fmt.Sprintf("%s-%s-%s-endpoint", vs.name, vs.Type.Label, endpoint)
}

// EndpointURLPattern appends the escaped endpoint path to the item pattern.
func (vs *Viewset) EndpointURLPattern(endpoint string) string {
	return vs.ItemURLPattern() + escapeSegments(endpoint)
}

// PPToEndpointURL fills the endpoint pattern with the escaped primary
// property.
func (vs *Viewset) PPToEndpointURL(endpoint, pp string) string {
	return fill(vs.EndpointURLPattern(endpoint), pp)
}

// NodeEndpointURL returns the endpoint URL of n.
func (vs *Viewset) NodeEndpointURL(endpoint string, n *schema.Node) string {
	return vs.PPToEndpointURL(endpoint, n.PP())
}

// ListBreadcrumbs is the parent chain followed by the list title.
func (vs *Viewset) ListBreadcrumbs() []component.LinkData {
	return append(vs.Parents(), component.LinkData{Title: vs.ListTitle()})
}

// ItemBreadcrumbs is the parent chain, a link to the list and the node.
func (vs *Viewset) ItemBreadcrumbs(n *schema.Node) []component.LinkData {
	return append(vs.Parents(),
		component.LinkData{URL: vs.ListURL(), Title: vs.ListTitle()},
		component.LinkData{Title: n.String()},
	)
}

// EndpointBreadcrumbs is the parent chain, a link to the list, a link to the
// node and the endpoint name, "here" when empty.
func (vs *Viewset) EndpointBreadcrumbs(n *schema.Node, name string) []component.LinkData {
	if name == "" {
		name = DefaultEndpointCrumb
	}
	return append(vs.Parents(),
		component.LinkData{URL: vs.ListURL(), Title: vs.ListTitle()},
		component.LinkData{URL: vs.NodeURL(n), Title: n.String()},
		component.LinkData{Title: name},
	)
}

// NodeToCard summarises n as a card linking to its item page.
func (vs *Viewset) NodeToCard(n *schema.Node) component.Card {
	return component.Card{MetaData: component.MetaData{
		Title:       n.String(),
		Subtitle:    vs.ListTitle(),
		Description: vs.ItemDescription(n),
		Links:       []component.Link{component.NewLink(vs.NodeURL(n), "")},
	}}
}

// NodesToCards lays the cards of nodes out in a card list.
func (vs *Viewset) NodesToCards(nodes []*schema.Node) component.CardList {
	cards := make([]component.Card, 0, len(nodes))
	for _, n := range nodes {
		cards = append(cards, vs.NodeToCard(n))
	}
	return component.CardList{Cards: cards}
}

// NodesToTable tabulates nodes with links to their item pages.
func (vs *Viewset) NodesToTable(nodes []*schema.Node, fields ...string) (*component.Table, error) {
	return component.NewNodeListTable(nodes, component.NodeListOptions{
		Fields:     fields,
		URLPattern: vs.ItemURLPattern(),
	})
}

// MatchNodes returns the nodes of the viewset's type.
func (vs *Viewset) MatchNodes(ctx context.Context, limit, skip int) ([]*schema.Node, error) {
	if vs.reader == nil {
		return nil, ErrNoStore
	}
	return vs.reader.MatchAll(ctx, vs.Type, limit, skip)
}

// MatchNode returns the node with the given primary property.
func (vs *Viewset) MatchNode(ctx context.Context, pp string) (*schema.Node, error) {
	if vs.reader == nil {
		return nil, ErrNoStore
	}
	return vs.reader.Match(ctx, vs.Type, pp)
}

// ExtractPP decodes a primary property taken from an escaped URL segment.
// Values read with http.Request.PathValue are already decoded.
func ExtractPP(segment string) (string, error) {
	pp, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("viewset: bad primary property %q: %w", segment, err)
	}
	return pp, nil
}

func fill(pattern, pp string) string {
	return strings.ReplaceAll(pattern, component.URLPlaceholder, schema.EscapePP(pp))
}

// escapeSegments escapes each "/"-separated segment of p.
func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
