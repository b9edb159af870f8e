package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentCountsByRoute(t *testing.T) {
	m := New()
	ok := m.Instrument("home", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	missing := m.Instrument("item", http.NotFoundHandler())

	for i := 0; i < 2; i++ {
		ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	missing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("home", "get", "200")); got != 2 {
		t.Fatalf("home requests = %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("item", "get", "404")); got != 1 {
		t.Fatalf("item requests = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Instrument("home", http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "autograph_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}
