package component

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-theme"
)

// Asset keys looked up through RendererConfig.AssetURL by the page template.
const (
	AssetStylesheet = "autograph.stylesheet"
	AssetScript     = "autograph.script"
)

// ThemeConfig flattens a theme selection into the configuration consumed by
// the renderer. Variant tokens, templates and assets override the manifest's;
// fallbacks fill partial keys neither defines.
func ThemeConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Partials: make(map[string]string),
		Tokens:   make(map[string]string),
		CSSVars:  make(map[string]string),
	}
	for key, value := range fallbacks {
		cfg.Partials[key] = value
	}
	if selection == nil || selection.Manifest == nil {
		cfg.AssetURL = func(string) string { return "" }
		return cfg
	}
	cfg.Theme = selection.Theme
	cfg.Variant = selection.Variant

	manifest := selection.Manifest
	prefix := manifest.Assets.Prefix
	files := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Tokens {
		cfg.Tokens[key] = value
	}
	for key, value := range manifest.Templates {
		cfg.Partials[key] = value
	}
	for key, value := range manifest.Assets.Files {
		files[key] = value
	}

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			cfg.Tokens[key] = value
		}
		for key, value := range variant.Templates {
			cfg.Partials[key] = value
		}
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
		for key, value := range variant.Assets.Files {
			files[key] = value
		}
	}

	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+strings.TrimPrefix(key, "--")] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") || strings.HasPrefix(file, "/") {
			return file
		}
		if prefix == "" {
			return file
		}
		if strings.HasPrefix(prefix, "http://") || strings.HasPrefix(prefix, "https://") {
			return strings.TrimSuffix(prefix, "/") + "/" + file
		}
		return path.Join(prefix, file)
	}
	return cfg
}

// BuiltinThemeName is the theme shipped with the renderer.
const BuiltinThemeName = "autograph"

// BuiltinTheme returns the bundled manifest. Its variants map onto the
// Bootstrap colour modes.
func BuiltinTheme() *theme.Manifest {
	return &theme.Manifest{
		Name:    BuiltinThemeName,
		Version: "1.0.0",
		Tokens:  map[string]string{"bs-link-color": "#0d6efd"},
		Variants: map[string]theme.Variant{
			"light": {},
			"dark":  {Tokens: map[string]string{"bs-link-color": "#6ea8fe"}},
		},
	}
}

// DefaultThemes is a selector holding only the built-in theme.
func DefaultThemes() *ManifestSelector {
	s, err := NewManifestSelector(BuiltinTheme())
	if err != nil {
		panic(err)
	}
	return s
}

// ManifestSelector is an in-memory theme.ThemeSelector over registered
// manifests. An empty name selects the default manifest.
type ManifestSelector struct {
	mu          sync.RWMutex
	manifests   map[string]*theme.Manifest
	defaultName string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector registers the supplied manifests. The first one becomes
// the default.
func NewManifestSelector(manifests ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{manifests: make(map[string]*theme.Manifest)}
	for _, m := range manifests {
		if err := s.Register(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a manifest keyed by its name.
func (s *ManifestSelector) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("component: theme manifest name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[manifest.Name]; exists {
		return fmt.Errorf("component: theme %q already registered", manifest.Name)
	}
	s.manifests[manifest.Name] = manifest
	if s.defaultName == "" {
		s.defaultName = manifest.Name
	}
	return nil
}

// Names lists registered theme names.
func (s *ManifestSelector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements theme.ThemeSelector. Unknown variants are rejected.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if strings.TrimSpace(name) == "" {
		name = s.defaultName
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("component: theme %q not found", name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("component: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: manifest.Name, Variant: variant, Manifest: manifest}, nil
}
