package buildconfig

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration failed validation: %v", err)
	}
	if want := []string{ReactPluginName, PWAPluginName}; !slices.Equal(cfg.PluginNames(), want) {
		t.Fatalf("expected plugins %v, got %v", want, cfg.PluginNames())
	}

	pwa, ok := cfg.PWA()
	if !ok {
		t.Fatalf("expected PWA plugin")
	}
	if pwa.Options.Workbox.MaximumFileSizeToCacheInBytes != 3*1024*1024 {
		t.Fatalf("unexpected cache ceiling: %d", pwa.Options.Workbox.MaximumFileSizeToCacheInBytes)
	}
	if got := pwa.Options.Workbox.String(); got != "3.0 MiB" {
		t.Fatalf("unexpected humanized ceiling: %s", got)
	}
	if len(pwa.Options.Manifest.Icons) != 9 {
		t.Fatalf("expected 9 icons, got %d", len(pwa.Options.Manifest.Icons))
	}
	if cfg.Server.Host.ListenHost() != "0.0.0.0" {
		t.Fatalf("expected network-visible binding, got %s", cfg.Server.Host.ListenHost())
	}
}

func TestValidateRejectsUnknownOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*PWAOptions)
	}{
		{"RegisterType", func(o *PWAOptions) { o.RegisterType = "manual" }},
		{"InjectRegister", func(o *PWAOptions) { o.InjectRegister = "eager" }},
		{"Display", func(o *PWAOptions) { o.Manifest.Display = "window" }},
		{"ThemeColor", func(o *PWAOptions) { o.Manifest.ThemeColor = "navy" }},
		{"IconSizes", func(o *PWAOptions) { o.Manifest.Icons[0].Sizes = "72" }},
		{"IconPurpose", func(o *PWAOptions) { o.Manifest.Icons[0].Purpose = "badge" }},
		{"CacheCeiling", func(o *PWAOptions) { o.Workbox.MaximumFileSizeToCacheInBytes = -1 }},
		{"NoIcons", func(o *PWAOptions) { o.Manifest.Icons = nil }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			pwa, _ := cfg.PWA()
			tc.mutate(&pwa.Options)

			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateRejectsDuplicatePlugins(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Plugins = append(cfg.Plugins, ReactPlugin{})
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestManifestJSONUsesWebManifestKeys(t *testing.T) {
	t.Parallel()

	pwa, _ := Default().PWA()
	data, err := pwa.Options.Manifest.JSON()
	if err != nil {
		t.Fatalf("JSON returned error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	for _, key := range []string{"name", "short_name", "start_url", "display", "theme_color", "icons"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("manifest missing %s: %s", key, data)
		}
	}
	icons := doc["icons"].([]any)
	first := icons[0].(map[string]any)
	if _, ok := first["purpose"]; ok {
		t.Fatalf("icons without purpose should omit the key")
	}
	last := icons[len(icons)-1].(map[string]any)
	if last["purpose"] != PurposeAny {
		t.Fatalf("expected last icon purpose any, got %v", last["purpose"])
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
server:
  host: 127.0.0.1
pwa:
  registerType: prompt
  workbox:
    maximumFileSizeToCacheInBytes: 5242880
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.Server.Host.ListenHost() != "127.0.0.1" {
		t.Fatalf("expected explicit host, got %s", cfg.Server.Host.ListenHost())
	}
	pwa, _ := cfg.PWA()
	if pwa.Options.RegisterType != RegisterPrompt {
		t.Fatalf("expected prompt register type, got %s", pwa.Options.RegisterType)
	}
	if pwa.Options.Workbox.MaximumFileSizeToCacheInBytes != 5*1024*1024 {
		t.Fatalf("unexpected ceiling %d", pwa.Options.Workbox.MaximumFileSizeToCacheInBytes)
	}
	if pwa.Options.Manifest.Name != "Symfield Chat" || len(pwa.Options.Manifest.Icons) != 9 {
		t.Fatalf("untouched manifest fields should keep defaults")
	}
	if cfg.Resolve.Alias["./runtimeConfig"] != "./runtimeConfig.browser" {
		t.Fatalf("alias should keep default")
	}
}

func TestParseServerHostForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		doc  string
		want string
	}{
		{"server:\n  host: true\n", "0.0.0.0"},
		{"server:\n  host: false\n", "localhost"},
		{"server:\n  host: dev.local\n", "dev.local"},
	}
	for _, tc := range tests {
		cfg, err := Parse([]byte(tc.doc))
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.doc, err)
		}
		if got := cfg.Server.Host.ListenHost(); got != tc.want {
			t.Fatalf("Parse(%q): expected %s, got %s", tc.doc, tc.want, got)
		}
	}

	if _, err := Parse([]byte("server:\n  host: [a]\n")); err == nil {
		t.Fatalf("expected error for non-scalar host")
	}
	if _, err := Parse([]byte("pwa:\n  registerTyp: prompt\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestIconDimensions(t *testing.T) {
	t.Parallel()

	w, h, err := Icon{Src: "/a.png", Sizes: "144x144"}.Dimensions()
	if err != nil || w != 144 || h != 144 {
		t.Fatalf("unexpected dimensions %dx%d err=%v", w, h, err)
	}
	for _, sizes := range []string{"144", "144x", "x144", "0144x144", "144x144 "} {
		if _, _, err := (Icon{Src: "/a.png", Sizes: sizes}).Dimensions(); err == nil {
			t.Fatalf("expected error for sizes %q", sizes)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	cfg := Default()
	clone := cfg.Clone()
	pwa, _ := clone.PWA()
	pwa.Options.Manifest.Icons[0].Src = "/mutated.png"
	clone.Resolve.Alias["x"] = "y"

	orig, _ := cfg.PWA()
	if orig.Options.Manifest.Icons[0].Src == "/mutated.png" {
		t.Fatalf("clone shares icon slice with original")
	}
	if _, ok := cfg.Resolve.Alias["x"]; ok {
		t.Fatalf("clone shares alias map with original")
	}
}
