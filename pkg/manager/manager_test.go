package manager

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-autograph/pkg/api"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/forms"
	"github.com/goliatone/go-autograph/pkg/metrics"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/testsupport"
	"github.com/goliatone/go-autograph/pkg/views"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

var (
	fixture  = testsupport.NewOntology()
	pageType = fixture.Page
)

func registry() *schema.Registry { return fixture.Registry }

func newManager(t *testing.T, options ...Option) *Manager {
	t.Helper()
	base := []Option{WithRegistry(registry()), WithAutograph()}
	m, err := New(append(base, options...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func seed(t *testing.T, m *Manager) {
	t.Helper()
	fixture.Seed(t, m.Env().Store)
}

func do(m *Manager, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListAndDetailShowRelatedNodes(t *testing.T) {
	m := newManager(t)
	seed(t, m)

	rec := do(m, http.MethodGet, "/autograph/Page/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Page 1") {
		t.Fatalf("list page missing Page 1")
	}

	rec = do(m, http.MethodGet, "/autograph/Page/node/page-1/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	for _, want := range []string{"Page 1", "Author 1"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("detail page missing %q", want)
		}
	}
}

func TestCreateMissingFieldPersistsNothing(t *testing.T) {
	m := newManager(t)
	rec := do(m, http.MethodPost, "/autograph/Page/create/", url.Values{
		"slug":    {"page-2"},
		"content": {"body"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	n, err := m.Env().Store.Count(context.Background(), pageType)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestCreateExistingKeepsOriginal(t *testing.T) {
	m := newManager(t)
	seed(t, m)

	rec := do(m, http.MethodPost, "/autograph/Page/create/", url.Values{
		"slug":    {"page-1"},
		"title":   {"Replaced"},
		"content": {"other"},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	got, err := m.Env().Store.Match(context.Background(), pageType, "page-1")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if title, _ := got.Get("title"); title != "Page 1" {
		t.Fatalf("title = %v, want Page 1", title)
	}
}

func TestOverviewGraphPayload(t *testing.T) {
	m := newManager(t)
	rec := do(m, http.MethodGet, "/autograph/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	const marker = "var graphData_autograph_schema = "
	body := rec.Body.String()
	start := strings.Index(body, marker)
	if start < 0 {
		t.Fatalf("graph payload not embedded")
	}
	payload := body[start+len(marker):]
	payload = payload[:strings.Index(payload, ";\n")]

	var data component.GraphData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(data.Nodes) != 2 || len(data.Links) != 1 {
		t.Fatalf("graph = %d nodes, %d links; want 2 and 1", len(data.Nodes), len(data.Links))
	}
}

func TestEnumBlankOptions(t *testing.T) {
	nt := schema.MustNodeType("Survey", "name",
		schema.WithFields(
			schema.String("name"),
			schema.Enum("mood", schema.Choices("happy", "sad"), schema.Optional()),
			schema.EnumList("tags", schema.Choices("a", "b", "c")),
		),
	)
	form, err := forms.Build(nt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	markup, err := form.Render(component.MustRenderer())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	mood, tags := selectMarkup(t, markup, "mood"), selectMarkup(t, markup, "tags")
	if got := strings.Count(mood, `<option value=""></option>`); got != 1 {
		t.Fatalf("mood blank options = %d, want 1", got)
	}
	if got := strings.Count(tags, `<option value=""></option>`); got != 0 {
		t.Fatalf("tags blank options = %d, want 0", got)
	}
	if !strings.Contains(tags, " multiple") {
		t.Fatalf("tags select is not multiple: %s", tags)
	}
}

func selectMarkup(t *testing.T, markup, name string) string {
	t.Helper()
	start := strings.Index(markup, `<select name="`+name+`"`)
	if start < 0 {
		t.Fatalf("no select named %q", name)
	}
	rest := markup[start:]
	return rest[:strings.Index(rest, "</select>")]
}

func TestRoutesAndURL(t *testing.T) {
	m := newManager(t)
	path, ok := m.URL("AutoGraphAutographViewset-Page-list")
	if !ok || path != "/autograph/Page/" {
		t.Fatalf("URL = %q, %v", path, ok)
	}
	if len(m.Routes()) == 0 {
		t.Fatalf("no routes registered")
	}
	if rec := do(m, http.MethodGet, "/autograph/Nope/", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown label status = %d", rec.Code)
	}
}

func TestAutographSubset(t *testing.T) {
	m := newManager(t, WithAutograph(pageType))
	if _, ok := m.URL("AutoGraphAutographViewset-Author-list"); ok {
		t.Fatalf("Author pages registered for a Page-only autograph")
	}
	if rec := do(m, http.MethodGet, "/autograph/Page/", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPIAndMetricsMounted(t *testing.T) {
	mx := metrics.New()
	pages := api.New("v1", &api.Resource{Type: pageType, Name: "pages", Description: "Site pages"})
	m := newManager(t, WithAPI(pages), WithMetrics(mx, ""))
	seed(t, m)

	rec := do(m, http.MethodGet, "/api/v1/pages/page-1.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("api status = %d: %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["title"] != "Page 1" {
		t.Fatalf("title = %v", got["title"])
	}

	rec = do(m, http.MethodGet, metrics.DefaultPath, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "autograph_http_requests_total") {
		t.Fatalf("metrics missing request counter")
	}
}

func TestExtraHandler(t *testing.T) {
	m := newManager(t, WithHandler("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	if rec := do(m, http.MethodGet, "/healthz", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestConfigurationErrors(t *testing.T) {
	if _, err := New(WithAutograph()); err == nil {
		t.Fatalf("expected an error without a registry")
	} else {
		var cfgErr *views.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("error = %T %v", err, err)
		}
	}

	bad := api.New("v1", &api.Resource{Type: pageType, Name: "pages"})
	_, err := New(WithRegistry(registry()), WithAPI(bad))
	var apiErr *api.ConfigurationError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T %v, want api configuration error", err, err)
	}

	twice := api.New("v1", &api.Resource{Type: pageType, Name: "pages", Description: "Pages"})
	_, err = New(WithRegistry(registry()), WithAPI(twice, twice))
	var viewErr *views.ConfigurationError
	if !errors.As(err, &viewErr) {
		t.Fatalf("error = %T %v, want a conflict reported as configuration error", err, err)
	}
}

func TestMisconfiguredViews(t *testing.T) {
	vs := viewset.New(pageType)
	tests := map[string]views.View{
		"list without viewset":     &views.ListView{Name: "pages"},
		"item without viewset":     &views.ItemView{Name: "page"},
		"viewset without type":     &views.ListView{Viewset: &viewset.Viewset{}},
		"endpoint without viewset": &views.EndpointView{Endpoint: "edit/"},
		"endpoint without name":    &views.EndpointView{Viewset: vs},
		"endpoint of slashes":      &views.EndpointView{Viewset: vs, Endpoint: "//"},
		"relative page path":       &views.PageView{Name: "home", Path: "home/"},
	}
	for name, view := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(WithRegistry(registry()), WithViews(view))
			var cfgErr *views.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %T %v, want configuration error", err, err)
			}
		})
	}

	if _, err := New(WithRegistry(registry()), WithViews(&views.EndpointView{Viewset: vs, Endpoint: "edit/"})); err != nil {
		t.Fatalf("valid endpoint view rejected: %v", err)
	}
}
