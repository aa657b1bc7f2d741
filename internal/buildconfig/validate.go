package buildconfig

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ErrInvalidConfig wraps field validation failures.
var ErrInvalidConfig = errors.New("invalid build configuration")

var (
	themeColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	sizesPattern      = regexp.MustCompile(`^[1-9]\d*x[1-9]\d*$`)
	mimePattern       = regexp.MustCompile(`^image/[a-z0-9.+-]+$`)
)

// Validate checks enumerations and syntax of the configuration. Asset
// existence is checked separately against the public directory.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Plugins, validation.Required, validation.By(uniquePlugins)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if pwa, ok := c.PWA(); ok {
		if err := pwa.Options.Validate(); err != nil {
			return fmt.Errorf("%w: pwa: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Validate checks the PWA plugin options.
func (o PWAOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.RegisterType, validation.Required, validation.In(RegisterAutoUpdate, RegisterPrompt)),
		validation.Field(&o.InjectRegister, validation.In(InjectAuto, InjectInline, InjectScript, InjectScriptDefer, InjectDisabled)),
		validation.Field(&o.Workbox),
		validation.Field(&o.Manifest),
	)
}

// Validate checks the precache settings.
func (w Workbox) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.MaximumFileSizeToCacheInBytes, validation.Required, validation.Min(int64(1))),
	)
}

// Validate checks the manifest document.
func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.ShortName, validation.Required),
		validation.Field(&m.StartURL, validation.Required, is.RequestURI),
		validation.Field(&m.Display, validation.Required,
			validation.In(DisplayFullscreen, DisplayStandalone, DisplayMinimalUI, DisplayBrowser)),
		validation.Field(&m.ThemeColor, validation.Match(themeColorPattern)),
		validation.Field(&m.Icons, validation.Required),
	)
}

// Validate checks one icon descriptor.
func (i Icon) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Src, validation.Required, is.RequestURI),
		validation.Field(&i.Sizes, validation.Required, validation.Match(sizesPattern)),
		validation.Field(&i.Type, validation.Required, validation.Match(mimePattern)),
		validation.Field(&i.Purpose, validation.In(PurposeAny, PurposeMaskable, PurposeMonochrome)),
	)
}

func uniquePlugins(value interface{}) error {
	plugins, _ := value.([]Plugin)
	seen := make(map[string]struct{}, len(plugins))
	for _, p := range plugins {
		if p == nil {
			return errors.New("must not contain nil plugins")
		}
		if _, dup := seen[p.Name()]; dup {
			return fmt.Errorf("plugin %s is configured more than once", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return nil
}
