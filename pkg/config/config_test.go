package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
listen: 127.0.0.1:9000
store:
  driver: sqlite
  dsn: file:graph.db
theme:
  name: bootstrap
  variant: dark
events:
  url: nats://localhost:4222
metrics:
  enabled: true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Default()
	want.Listen = "127.0.0.1:9000"
	want.Store = StoreConfig{Driver: DriverSQLite, DSN: "file:graph.db"}
	want.Theme = ThemeConfig{Name: "bootstrap", Variant: "dark"}
	want.Events.URL = "nats://localhost:4222"
	want.Metrics.Enabled = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Events.Enabled() {
		t.Fatalf("events should be enabled")
	}
}

func TestParseEmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "listne: :80\n",
		"bad listen":     "listen: nowhere\n",
		"unknown driver": "store:\n  driver: neo4j\n",
		"sqlite no dsn":  "store:\n  driver: sqlite\n",
		"bad version":    "api:\n  version: v1/x\n",
		"metrics path":   "metrics:\n  enabled: true\n  path: metrics\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestLoadAppliesOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autograph.yml")
	if err := os.WriteFile(path, []byte("listen: :9000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, WithListen(":7000"), WithStore(DriverSQLite, "graph.db"), WithDebug(true))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":7000" || cfg.Store.DSN != "graph.db" || !cfg.Log.Debug {
		t.Fatalf("options not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil || !strings.Contains(err.Error(), "config: read") {
		t.Fatalf("expected a read error, got %v", err)
	}
}
