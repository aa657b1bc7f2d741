package buildconfig

// DefaultCacheCeiling is the largest file the service worker precaches.
const DefaultCacheCeiling = 3 * 1024 * 1024

// Default returns the project's bundler configuration.
func Default() *Config {
	return &Config{
		Resolve: Resolve{
			Alias: map[string]string{"./runtimeConfig": "./runtimeConfig.browser"},
		},
		Plugins: []Plugin{
			ReactPlugin{},
			&PWAPlugin{Options: PWAOptions{
				RegisterType:   RegisterAutoUpdate,
				DevOptions:     DevOptions{Enabled: true},
				InjectRegister: InjectAuto,
				Workbox:        Workbox{MaximumFileSizeToCacheInBytes: DefaultCacheCeiling},
				Manifest: Manifest{
					Name:        "Symfield Chat",
					ShortName:   "Symfield Chat",
					Description: "AWS-native chatbot using Bedrock",
					StartURL:    "/index.html",
					Display:     DisplayStandalone,
					ThemeColor:  "#232F3E",
					Icons: []Icon{
						{Src: "/images/symfield_icon_72.png", Sizes: "72x72", Type: "image/png"},
						{Src: "/images/symfield_icon_96.png", Sizes: "96x96", Type: "image/png"},
						{Src: "/images/symfield_icon_128.png", Sizes: "128x128", Type: "image/png"},
						{Src: "/images/symfield_icon_144.png", Sizes: "144x144", Type: "image/png"},
						{Src: "/images/symfield_icon_152.png", Sizes: "152x152", Type: "image/png"},
						{Src: "/images/symfield_icon_192.png", Sizes: "192x192", Type: "image/png"},
						{Src: "/images/symfield_icon_384.png", Sizes: "384x384", Type: "image/png"},
						{Src: "/images/symfield_icon_512.png", Sizes: "512x512", Type: "image/png", Purpose: PurposeMaskable},
						{Src: "/images/symfield_icon_512.png", Sizes: "512x512", Type: "image/png", Purpose: PurposeAny},
					},
				},
			}},
		},
		Server: Server{Host: ServerHost{Expose: true}},
	}
}
