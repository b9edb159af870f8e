package forms

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
)

var (
	colours = schema.Choices("red", "green", "blue")

	widgetType = schema.MustNodeType("Widget", "name",
		schema.WithFields(
			schema.String("name"),
			schema.Int("count", schema.Optional()),
			schema.Enum("colour", colours, schema.Optional()),
			schema.EnumList("sizes", schema.Choices("s", "m", "l")),
			schema.Date("released", schema.Optional()),
			schema.Secret("token", schema.Optional()),
			schema.Email("owner", schema.Optional()),
			schema.Hidden("kind", "widget"),
			schema.String("internal", schema.Optional(), schema.Excluded()),
		),
	)

	pageType = schema.MustNodeType("Page", "slug",
		schema.WithDisplay("title"),
		schema.WithFields(
			schema.String("slug"),
			schema.String("title"),
			schema.String("description", schema.Optional()),
		),
	)
	authorType  = schema.MustNodeType("Author", "name", schema.WithFields(schema.String("name")))
	authoredBy  = schema.MustRelationshipType("AUTHORED_BY", pageType, authorType, schema.String("comments", schema.Optional()))
	rendererFor = component.MustRenderer()
)

func widgetNames(fields []component.Component) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("%T", f))
	}
	return out
}

func TestBuildSelectsWidgetPerCoreType(t *testing.T) {
	form := MustBuild(widgetType)

	want := []string{
		"component.TextAreaField",
		"component.TextAreaField",
		"component.SelectField",
		"component.SelectField",
		"component.DateField",
		"component.PasswordField",
		"component.EmailField",
		"component.HiddenField",
		"component.Button",
	}
	if diff := cmp.Diff(want, widgetNames(form.Fields)); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}

	name := form.Fields[0].(component.TextAreaField)
	if name.Label != "Name" || !name.Required || name.ID == "" {
		t.Fatalf("unexpected name widget %+v", name)
	}
	sizes := form.Fields[3].(component.SelectField)
	if !sizes.Multiple || !sizes.Required {
		t.Fatalf("list-of-enum should be a required multi-select: %+v", sizes)
	}
	kind := form.Fields[7].(component.HiddenField)
	if kind.Value != "widget" {
		t.Fatalf("hidden field should carry its fixed value, got %q", kind.Value)
	}
	if form.Method != "post" {
		t.Fatalf("expected post method, got %q", form.Method)
	}
}

func TestEnumOptionCounts(t *testing.T) {
	cases := []struct {
		name     string
		field    schema.FieldDescriptor
		wantOpts int
		blank    bool
	}{
		{name: "optional enum", field: schema.Enum("colour", colours, schema.Optional()), wantOpts: 4, blank: true},
		{name: "required enum", field: schema.Enum("colour", colours), wantOpts: 3},
		{name: "optional list", field: schema.EnumList("colour", colours, schema.Optional()), wantOpts: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html, err := rendererFor.Render(Widget(tc.field, nil))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got := strings.Count(html, "<option"); got != tc.wantOpts {
				t.Fatalf("expected %d options, got %d:\n%s", tc.wantOpts, got, html)
			}
			if got := strings.Contains(html, `<option value=""></option>`); got != tc.blank {
				t.Fatalf("blank option presence = %v, want %v", got, tc.blank)
			}
		})
	}
}

func TestBuildUsesDefaultInstanceAsPlaceholder(t *testing.T) {
	existing, err := widgetType.New(map[string]any{
		"name":   "gear",
		"count":  "3",
		"colour": "red",
		"sizes":  []string{"m"},
		"token":  "s3cret",
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	form := MustBuild(widgetType, WithDefaultInstance(existing), WithExcluded("released"), WithAction("/w/gear/update/"))

	if got := form.Fields[0].(component.TextAreaField).Placeholder; got != "gear" {
		t.Fatalf("name placeholder = %q", got)
	}
	if got := form.Fields[1].(component.TextAreaField).Placeholder; got != "3" {
		t.Fatalf("count placeholder = %q", got)
	}
	if got := form.Fields[2].(component.SelectField).Selected; !cmp.Equal(got, []string{"red"}) {
		t.Fatalf("colour selection = %v", got)
	}
	for _, f := range form.Fields {
		if _, ok := f.(component.DateField); ok {
			t.Fatalf("excluded field rendered")
		}
		if pw, ok := f.(component.PasswordField); ok && pw.Placeholder != "" {
			t.Fatalf("secret echoed as placeholder: %q", pw.Placeholder)
		}
	}

	html, err := rendererFor.Render(form)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `action="/w/gear/update/"`) || !strings.Contains(html, ">gear</textarea>") {
		t.Fatalf("unexpected form markup:\n%s", html)
	}
}

func TestValidateTreatsEmptyStringsAsAbsent(t *testing.T) {
	form := MustBuild(pageType)

	withEmpty := url.Values{"slug": {"p"}, "title": {"P"}, "description": {""}}
	without := url.Values{"slug": {"p"}, "title": {"P"}}
	if !form.Validate(withEmpty) || !form.Validate(without) {
		t.Fatalf("both submissions should validate")
	}
	a, err := form.ToModel(withEmpty)
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	b, err := form.ToModel(without)
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	if diff := cmp.Diff(b.Properties, a.Properties); diff != "" {
		t.Fatalf("empty string changed the result (-want +got):\n%s", diff)
	}

	missing := url.Values{"slug": {"p"}, "title": {""}}
	if form.Validate(missing) {
		t.Fatalf("missing required title should fail")
	}
	if _, err := form.ToModel(missing); !errors.Is(err, schema.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateIgnoresUnknownKeys(t *testing.T) {
	form := MustBuild(pageType)
	node, err := form.ToModel(url.Values{"slug": {"p"}, "title": {"P"}, "bogus": {"x"}})
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	if _, ok := node.Get("bogus"); ok {
		t.Fatalf("unknown key should be dropped")
	}
}

func TestBuildWithExtraFields(t *testing.T) {
	form, err := Build(pageType, WithExtraFields(schema.Enum("author", schema.Choices("Ada", "Bob"))))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(form.Fields) != 5 {
		t.Fatalf("expected 4 widgets and a button, got %v", widgetNames(form.Fields))
	}
	if form.Validate(url.Values{"slug": {"p"}, "title": {"P"}}) {
		t.Fatalf("composite form should require the author")
	}
	node, err := form.ToModel(url.Values{"slug": {"p"}, "title": {"P"}, "author": {"Ada"}})
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	page := node.As(pageType)
	if _, ok := page.Get("author"); ok || page.PP() != "p" {
		t.Fatalf("projection should drop the ad hoc field: %+v", page.Properties)
	}

	if _, err := Build(pageType, WithExtraFields(schema.String("slug"))); err == nil {
		t.Fatalf("duplicate extra field should fail")
	}
}

type memoryResolver map[string]*schema.Node

func (m memoryResolver) Resolve(_ context.Context, label, pp string) (*schema.Node, error) {
	node, ok := m[label+"/"+pp]
	if !ok {
		return nil, ErrUnresolved
	}
	return node, nil
}

func mustNode(t *testing.T, nt *schema.NodeType, values map[string]any) *schema.Node {
	t.Helper()
	n, err := nt.New(values)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	return n
}

func TestBuildRelationshipLayout(t *testing.T) {
	page := mustNode(t, pageType, map[string]any{"slug": "page-1", "title": "Page 1"})
	author := mustNode(t, authorType, map[string]any{"name": "Author 1"})
	resolver := memoryResolver{}

	form, err := BuildRelationship(authoredBy, resolver, WithSourceNode(page), WithTargetOptions(author))
	if err != nil {
		t.Fatalf("BuildRelationship: %v", err)
	}

	var names []string
	for _, f := range form.Fields {
		if named, ok := f.(component.FormField); ok {
			names = append(names, named.FieldName())
			continue
		}
		names = append(names, "<button>")
	}
	want := []string{"relationship_type", "source", "source_type", "target", "target_type", "comments", "<button>"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	source := form.Fields[1].(component.SelectField)
	if source.Required || len(source.Options) != 1 || source.Options[0].Value != "page-1" || source.Label != "Source Node" {
		t.Fatalf("unexpected fixed source selector %+v", source)
	}
	targetType := form.Fields[4].(component.SelectField)
	if !targetType.Required || targetType.Options[0].Value != "Author" || targetType.Label != "Target Label" {
		t.Fatalf("unexpected target type selector %+v", targetType)
	}
	if form.Collapsible().Warning {
		t.Fatalf("types with candidates should not warn")
	}

	empty, err := BuildRelationship(authoredBy, resolver, WithSourceNode(page))
	if err != nil {
		t.Fatalf("BuildRelationship: %v", err)
	}
	if _, ok := empty.Fields[3].(component.StringField); !ok {
		t.Fatalf("target without candidates should be free text, got %T", empty.Fields[3])
	}
	if !empty.Collapsible().Warning {
		t.Fatalf("types without candidates should warn")
	}
}

func TestRelationshipToModel(t *testing.T) {
	page := mustNode(t, pageType, map[string]any{"slug": "page-1", "title": "Page 1"})
	author := mustNode(t, authorType, map[string]any{"name": "Author 1"})
	resolver := memoryResolver{"Page/page-1": page, "Author/Author 1": author}
	form, err := BuildRelationship(authoredBy, resolver, WithSourceNode(page))
	if err != nil {
		t.Fatalf("BuildRelationship: %v", err)
	}
	ctx := context.Background()

	valid := url.Values{
		"relationship_type": {"AUTHORED_BY"},
		"source":            {"page-1"},
		"source_type":       {"Page"},
		"target":            {"Author 1"},
		"target_type":       {"Author"},
		"comments":          {""},
	}
	if !form.Validate(ctx, valid) {
		t.Fatalf("expected valid submission")
	}
	rel, err := form.ToModel(ctx, valid)
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	if rel.Source != page || rel.Target != author || len(rel.Properties) != 0 {
		t.Fatalf("unexpected relationship %+v", rel)
	}

	cases := map[string]url.Values{
		"unknown node": {"source": {"page-1"}, "source_type": {"Page"}, "target": {"nobody"}, "target_type": {"Author"}},
		"unknown type": {"source": {"page-1"}, "source_type": {"Page"}, "target": {"Author 1"}, "target_type": {"Robot"}},
		"wrong label":  {"source": {"page-1"}, "source_type": {"Page"}, "target": {"page-1"}, "target_type": {"Page"}},
		"missing type": {"source": {"page-1"}, "target": {"Author 1"}, "target_type": {"Author"}},
	}
	for name, data := range cases {
		if form.Validate(ctx, data) {
			t.Fatalf("%s: expected validation failure", name)
		}
		if _, err := form.ToModel(ctx, data); !errors.Is(err, schema.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestBuildRelationshipNeedsResolver(t *testing.T) {
	if _, err := BuildRelationship(authoredBy, nil); err == nil {
		t.Fatalf("expected error without resolver")
	}
	if _, err := BuildRelationship(nil, memoryResolver{}); err == nil {
		t.Fatalf("expected error without relationship type")
	}
}

func TestRelationshipResolverFailure(t *testing.T) {
	page := mustNode(t, pageType, map[string]any{"slug": "page-1", "title": "Page 1"})
	outage := errors.New("backend down")
	resolver := ResolverFunc(func(_ context.Context, label, pp string) (*schema.Node, error) {
		if label == "Author" {
			return nil, outage
		}
		return page, nil
	})
	form, err := BuildRelationship(authoredBy, resolver, WithSourceNode(page))
	if err != nil {
		t.Fatalf("BuildRelationship: %v", err)
	}
	data := url.Values{
		"source": {"page-1"}, "source_type": {"Page"},
		"target": {"Author 1"}, "target_type": {"Author"},
	}
	if form.Validate(context.Background(), data) {
		t.Fatalf("submission with an unresolvable end validated")
	}
	_, err = form.ToModel(context.Background(), data)
	if !errors.Is(err, outage) {
		t.Fatalf("err = %v, want the resolver error", err)
	}
	if errors.Is(err, schema.ErrValidation) {
		t.Fatalf("resolver failure reported as validation: %v", err)
	}
}
