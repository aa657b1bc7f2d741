package buildconfig

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Plugin names as reported by the bundler.
const (
	ReactPluginName = "vite:react"
	PWAPluginName   = "vite-plugin-pwa"
)

// Register strategies for the service worker.
const (
	RegisterAutoUpdate = "autoUpdate"
	RegisterPrompt     = "prompt"
)

// Injection modes for the service-worker registration script.
const (
	InjectAuto        = "auto"
	InjectInline      = "inline"
	InjectScript      = "script"
	InjectScriptDefer = "script-defer"
	InjectDisabled    = "false"
)

// Manifest display modes.
const (
	DisplayFullscreen = "fullscreen"
	DisplayStandalone = "standalone"
	DisplayMinimalUI  = "minimal-ui"
	DisplayBrowser    = "browser"
)

// Icon purposes.
const (
	PurposeAny        = "any"
	PurposeMaskable   = "maskable"
	PurposeMonochrome = "monochrome"
)

// Config is the bundler configuration.
type Config struct {
	Resolve Resolve  `json:"resolve" yaml:"resolve"`
	Plugins []Plugin `json:"plugins" yaml:"-"`
	Server  Server   `json:"server" yaml:"server"`
}

// Resolve holds module resolution settings.
type Resolve struct {
	Alias map[string]string `json:"alias" yaml:"alias"`
}

// Server holds dev-server settings.
type Server struct {
	Host ServerHost `json:"host" yaml:"host"`
}

// Plugin is one entry of the ordered plugin list.
type Plugin interface {
	Name() string
}

// ReactPlugin enables the UI framework transform. It takes no options.
type ReactPlugin struct{}

func (ReactPlugin) Name() string { return ReactPluginName }

// MarshalJSON renders the plugin as {"name": ...}.
func (p ReactPlugin) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: p.Name()})
}

// PWAPlugin generates the web-app manifest and service worker.
type PWAPlugin struct {
	Options PWAOptions
}

func (*PWAPlugin) Name() string { return PWAPluginName }

// MarshalJSON renders the plugin with its options.
func (p *PWAPlugin) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string     `json:"name"`
		Options PWAOptions `json:"options"`
	}{Name: p.Name(), Options: p.Options})
}

// PWAOptions are the recognized PWA plugin options.
type PWAOptions struct {
	RegisterType   string     `json:"registerType" yaml:"registerType"`
	DevOptions     DevOptions `json:"devOptions" yaml:"devOptions"`
	InjectRegister string     `json:"injectRegister" yaml:"injectRegister"`
	Workbox        Workbox    `json:"workbox" yaml:"workbox"`
	Manifest       Manifest   `json:"manifest" yaml:"manifest"`
}

// DevOptions controls the service worker in dev mode.
type DevOptions struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Workbox holds service-worker precache settings.
type Workbox struct {
	MaximumFileSizeToCacheInBytes int64 `json:"maximumFileSizeToCacheInBytes" yaml:"maximumFileSizeToCacheInBytes"`
}

// String renders the cache ceiling for humans, e.g. "3.0 MiB".
func (w Workbox) String() string {
	if w.MaximumFileSizeToCacheInBytes <= 0 {
		return "unset"
	}
	return humanize.IBytes(uint64(w.MaximumFileSizeToCacheInBytes))
}

// Manifest is the web-app manifest document.
type Manifest struct {
	Name        string `json:"name" yaml:"name"`
	ShortName   string `json:"short_name" yaml:"shortName"`
	Description string `json:"description" yaml:"description"`
	StartURL    string `json:"start_url" yaml:"startUrl"`
	Display     string `json:"display" yaml:"display"`
	ThemeColor  string `json:"theme_color" yaml:"themeColor"`
	Icons       []Icon `json:"icons" yaml:"icons"`
}

// Icon describes one manifest icon.
type Icon struct {
	Src     string `json:"src" yaml:"src"`
	Sizes   string `json:"sizes" yaml:"sizes"`
	Type    string `json:"type" yaml:"type"`
	Purpose string `json:"purpose,omitempty" yaml:"purpose,omitempty"`
}

// Dimensions parses Sizes ("512x512") into width and height.
func (i Icon) Dimensions() (width, height int, err error) {
	if _, err := fmt.Sscanf(i.Sizes, "%dx%d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("icon %s: sizes %q is not WIDTHxHEIGHT", i.Src, i.Sizes)
	}
	if fmt.Sprintf("%dx%d", width, height) != i.Sizes {
		return 0, 0, fmt.Errorf("icon %s: sizes %q is not WIDTHxHEIGHT", i.Src, i.Sizes)
	}
	return width, height, nil
}

// JSON renders the manifest as served to browsers.
func (m Manifest) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return out, nil
}

// ServerHost mirrors the bundler's host option, which is either a boolean
// (true exposes the server on all interfaces) or an explicit address.
type ServerHost struct {
	Expose  bool
	Address string
}

// ListenHost returns the address the dev server binds to.
func (h ServerHost) ListenHost() string {
	switch {
	case h.Address != "":
		return h.Address
	case h.Expose:
		return "0.0.0.0"
	default:
		return "localhost"
	}
}

// MarshalJSON renders the option in its bool-or-string form.
func (h ServerHost) MarshalJSON() ([]byte, error) {
	if h.Address != "" {
		return json.Marshal(h.Address)
	}
	return json.Marshal(h.Expose)
}

// UnmarshalYAML accepts a boolean or a string.
func (h *ServerHost) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("server.host must be a boolean or a string")
	}
	if value.Tag == "!!bool" {
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		*h = ServerHost{Expose: b}
		return nil
	}
	*h = ServerHost{Address: value.Value}
	return nil
}

// MarshalYAML renders the option in its bool-or-string form.
func (h ServerHost) MarshalYAML() (interface{}, error) {
	if h.Address != "" {
		return h.Address, nil
	}
	return h.Expose, nil
}

// PWA returns the PWA plugin, if configured.
func (c *Config) PWA() (*PWAPlugin, bool) {
	for _, p := range c.Plugins {
		if pwa, ok := p.(*PWAPlugin); ok {
			return pwa, true
		}
	}
	return nil, false
}

// PluginNames lists the plugin names in order.
func (c *Config) PluginNames() []string {
	names := make([]string, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		names = append(names, p.Name())
	}
	return names
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := &Config{
		Resolve: Resolve{Alias: maps.Clone(c.Resolve.Alias)},
		Server:  c.Server,
		Plugins: make([]Plugin, 0, len(c.Plugins)),
	}
	for _, p := range c.Plugins {
		switch v := p.(type) {
		case *PWAPlugin:
			opts := v.Options
			opts.Manifest.Icons = slices.Clone(v.Options.Manifest.Icons)
			out.Plugins = append(out.Plugins, &PWAPlugin{Options: opts})
		default:
			out.Plugins = append(out.Plugins, p)
		}
	}
	return out
}
