package views

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/store/memory"
	"github.com/goliatone/go-autograph/pkg/viewset"
)

var page = schema.MustNodeType("Page", "slug",
	schema.WithFields(schema.String("slug"), schema.String("title")),
	schema.WithDisplay("title"),
)

func newEnv(t *testing.T, titles ...string) *Env {
	t.Helper()
	reg := schema.NewRegistry()
	reg.MustRegisterNode(page)
	st := memory.New(reg)
	for i, title := range titles {
		n, err := page.New(map[string]any{"slug": fmt.Sprintf("p%d", i), "title": title})
		if err != nil {
			t.Fatalf("new page: %v", err)
		}
		if err := st.Merge(context.Background(), n); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	return &Env{Store: st, Registry: reg, Renderer: component.MustRenderer()}
}

func serve(t *testing.T, env *Env, views []View, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	for _, v := range views {
		for _, route := range v.Routes(env) {
			mux.Handle(route.Pattern(), route.Handler)
		}
	}
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NotFound("page %q", "x"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), http.StatusNotFound},
		{ErrValidation, http.StatusUnprocessableEntity},
		{&schema.ValidationError{Subject: "Page"}, http.StatusUnprocessableEntity},
		{ErrIdentityConflict, http.StatusConflict},
		{store.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRoutePattern(t *testing.T) {
	if got := (Route{Method: "GET", Path: "/docs/"}).Pattern(); got != "GET /docs/{$}" {
		t.Fatalf("pattern = %q", got)
	}
	if got := (Route{Path: "/api/v1/pages.json"}).Pattern(); got != "/api/v1/pages.json" {
		t.Fatalf("pattern = %q", got)
	}
}

func TestMergeSectionsReplacesInPlace(t *testing.T) {
	base := []Section{{Name: "a", Title: "A"}, {Name: "b", Title: "B"}}
	got := MergeSections(base, Section{Name: "a", Title: "A2"}, Section{Title: "Anonymous"})
	titles := make([]string, 0, len(got))
	for _, s := range got {
		titles = append(titles, s.Title)
	}
	if strings.Join(titles, ",") != "A2,B,Anonymous" {
		t.Fatalf("titles = %v", titles)
	}
	if base[0].Title != "A" {
		t.Fatalf("base was modified")
	}
}

func TestBuildPageElements(t *testing.T) {
	sections := []Section{
		{Name: "empty", Title: "Empty", Body: func(*Request) ([]component.Component, error) { return nil, nil }},
		{Name: "text", Title: "Text", Body: func(*Request) ([]component.Component, error) {
			return Components(component.Text{Text: "hello"}), nil
		}},
	}
	elements := []Element{
		TextElement(component.ElementTitle, "First"),
		TextElement(component.ElementTitle, "Second"),
		TextElement(component.ElementFooterText, "footer"),
		{Slot: component.ElementBreadcrumbs, Value: func(*Request) (any, error) {
			return []component.LinkData{viewset.Home}, nil
		}},
	}
	p, err := BuildPage(&Request{}, "Page", sections, elements)
	if err != nil {
		t.Fatalf("BuildPage: %v", err)
	}
	if len(p.Sections()) != 1 || p.Sections()[0].Title != "Text" {
		t.Fatalf("unexpected sections %+v", p.Sections())
	}
	if p.Elements.Title != "Second" || p.Elements.H1 != "Second" || p.Elements.FooterText != "footer" {
		t.Fatalf("unexpected elements %+v", p.Elements)
	}
	if _, ok := p.Elements.Breadcrumbs.(component.Breadcrumb); !ok {
		t.Fatalf("breadcrumbs = %T", p.Elements.Breadcrumbs)
	}

	_, err = BuildPage(&Request{}, "Page", nil, []Element{TextElement(component.ElementLeftbar, "oops")})
	if err == nil {
		t.Fatalf("expected an error for a string leftbar")
	}
}

func TestListViewDefaults(t *testing.T) {
	env := newEnv(t, "Welcome", "Guide")
	vs := viewset.New(page, viewset.WithSlug("docs"), viewset.WithTitle("pages"))
	rec := serve(t, env, []View{&ListView{Viewset: vs}}, http.MethodGet, "/docs/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>pages</title>", "<h1>pages</h1>", "Welcome", "Guide", `href="/docs/p0/"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("list page missing %q", want)
		}
	}
}

func TestItemView(t *testing.T) {
	env := newEnv(t, "Welcome")
	vs := viewset.New(page)
	views := []View{&ItemView{Viewset: vs}}

	rec := serve(t, env, views, http.MethodGet, "/Page/p0/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Welcome</title>", "Slug (Primary Property)", `<a href="/Page/">Page</a>`} {
		if !strings.Contains(body, want) {
			t.Fatalf("item page missing %q", want)
		}
	}

	if rec := serve(t, env, views, http.MethodGet, "/Page/missing/", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing node status = %d", rec.Code)
	}
}

func TestEndpointViewPost(t *testing.T) {
	env := newEnv(t, "Welcome")
	vs := viewset.New(page)
	var posted string
	view := &EndpointView{
		Viewset:  vs,
		Endpoint: "rename/",
		Crumb:    "Rename",
		Title:    func(r *Request) string { return "Rename " + r.Node.String() },
		Sections: []Section{{Name: "form", Body: func(r *Request) ([]component.Component, error) {
			return Components(&component.Form{Action: r.Viewset.NodeEndpointURL("rename/", r.Node)}), nil
		}}},
		Post: func(w http.ResponseWriter, r *Request) error {
			if err := r.ParseForm(); err != nil {
				return err
			}
			posted = r.PostForm.Get("title")
			if posted == "" {
				return ErrValidation
			}
			return Redirect(w, r.Request, r.Viewset.NodeURL(r.Node))
		},
	}
	views := []View{view}

	rec := serve(t, env, views, http.MethodGet, "/Page/p0/rename/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Rename Welcome</title>", `<a href="/Page/p0/">Welcome</a>`, "Rename</li>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("endpoint page missing %q", want)
		}
	}

	rec = serve(t, env, views, http.MethodPost, "/Page/p0/rename/", url.Values{"title": {"New"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/Page/p0/" {
		t.Fatalf("POST = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if posted != "New" {
		t.Fatalf("posted = %q", posted)
	}

	rec = serve(t, env, views, http.MethodPost, "/Page/p0/rename/", url.Values{"title": {""}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid POST = %d", rec.Code)
	}
	rec = serve(t, env, views, http.MethodPost, "/Page/nope/rename/", url.Values{"title": {"x"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing node POST = %d", rec.Code)
	}
}

func TestPageView(t *testing.T) {
	env := newEnv(t)
	view := &PageView{Name: "home", Path: "/", Title: "Home", Sections: []Section{{
		Body: func(*Request) ([]component.Component, error) {
			return Components(component.Text{Text: "hi there"}), nil
		},
	}}}
	rec := serve(t, env, []View{view}, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "hi there") {
		t.Fatalf("home = %d", rec.Code)
	}
	if rec := serve(t, env, []View{view}, http.MethodGet, "/elsewhere", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("exact match expected, got %d", rec.Code)
	}
}

func TestResolver(t *testing.T) {
	env := newEnv(t, "Welcome")
	resolve := Resolver(env)
	n, err := resolve.Resolve(context.Background(), "Page", "p0")
	if err != nil || n.String() != "Welcome" {
		t.Fatalf("Resolve = %v, %v", n, err)
	}
	if _, err := resolve.Resolve(context.Background(), "Nope", "p0"); err == nil {
		t.Fatalf("expected unknown label error")
	}
	if _, err := resolve.Resolve(context.Background(), "Page", "zz"); err == nil {
		t.Fatalf("expected missing node error")
	}
}

func TestEnvValidate(t *testing.T) {
	var cfgErr *ConfigurationError
	if err := (&Env{}).Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if err := newEnv(t).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRouteURLs(t *testing.T) {
	env := newEnv(t, "Welcome", "Guide")
	vs := viewset.New(page)
	routes := (&ItemView{Viewset: vs}).Routes(env)
	got, err := routes[0].URLs(context.Background(), env.Store)
	if err != nil {
		t.Fatalf("URLs: %v", err)
	}
	if strings.Join(got, " ") != "/Page/p0/ /Page/p1/" {
		t.Fatalf("urls = %v", got)
	}

	endpoint := (&EndpointView{Viewset: vs, Endpoint: "edit/"}).Routes(env)
	if got, _ := endpoint[0].URLs(context.Background(), env.Store); got != nil {
		t.Fatalf("endpoint routes are not static, got %v", got)
	}

	api := Route{Path: "/api/v1/pages/{pp}", Template: "/api/v1/pages/{pp}.json", Static: true, Type: page}
	got, _ = api.URLs(context.Background(), env.Store)
	if len(got) != 2 || got[0] != "/api/v1/pages/p0.json" {
		t.Fatalf("template urls = %v", got)
	}
}
