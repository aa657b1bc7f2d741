package checks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/eugenenazirov/stackctl/internal/buildconfig"
	"github.com/eugenenazirov/stackctl/internal/params"
)

func publicFS(iconSize int) fstest.MapFS {
	files := fstest.MapFS{
		"index.html":        {Data: []byte("<html></html>")},
		"assets/bundle.js":  {Data: make([]byte, 2048)},
		"images/readme.txt": {Data: []byte("icons")},
	}
	for _, name := range []string{"72", "96", "128", "144", "152", "192", "384", "512"} {
		files["images/symfield_icon_"+name+".png"] = &fstest.MapFile{Data: make([]byte, iconSize)}
	}
	return files
}

func TestRunBuiltinConfigurationPasses(t *testing.T) {
	t.Parallel()

	report := Run(context.Background(), Inputs{
		Registry:    params.Builtin(),
		Environment: "dev",
		Build:       buildconfig.Default(),
		Public:      publicFS(1024),
	})

	if !report.OK() {
		t.Fatalf("expected all checks to pass, failed: %+v", report.Failed())
	}
	if len(report.Results) != 7 {
		t.Fatalf("expected 7 results, got %d: %+v", len(report.Results), report.Results)
	}
}

func TestDefaultCoverage(t *testing.T) {
	t.Parallel()

	if err := DefaultCoverage(params.Builtin()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg := params.NewRegistry()
	reg.MustSet("dev", params.Input{EnableBotStore: params.Bool(false)})
	if err := DefaultCoverage(reg); err != nil {
		t.Fatalf("registry without default has nothing to cover, got %v", err)
	}

	reg = params.Builtin()
	reg.MustSet("qa", params.Input{
		BedrockRegion:      params.String(""),
		AutoJoinUserGroups: []string{},
		EnableBotStore:     params.Bool(true),
	})
	err := DefaultCoverage(reg)
	if err == nil {
		t.Fatalf("expected blanked fields to fail coverage")
	}
	for _, field := range []string{"bedrockRegion", "autoJoinUserGroups"} {
		if !strings.Contains(err.Error(), "environment qa: field "+field) {
			t.Fatalf("expected %s to be reported, got %v", field, err)
		}
	}
	if strings.Contains(err.Error(), "enableBotStore") {
		t.Fatalf("booleans are always defined, got %v", err)
	}
}

func TestCIDRCoverage(t *testing.T) {
	t.Parallel()

	res, err := params.Resolve(params.Builtin(), params.DefaultEnvironment)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if err := CIDRCoverage(res.Parameters); err != nil {
		t.Fatalf("expected default ranges to cover everything, got %v", err)
	}

	p := res.Parameters
	p.AllowedIPv4AddressRanges = []string{"0.0.0.0/1"}
	p.PublishedAPIAllowedIPv6AddressRanges = []string{"not-a-cidr"}
	err = CIDRCoverage(p)
	if err == nil {
		t.Fatalf("expected coverage errors")
	}
	if !strings.Contains(err.Error(), "128.0.0.0 not covered") {
		t.Fatalf("expected first gap to be reported, got %v", err)
	}
	if !strings.Contains(err.Error(), "publishedApiAllowedIpV6AddressRanges") {
		t.Fatalf("expected parse failure to name the list, got %v", err)
	}
}

func TestIconSizes(t *testing.T) {
	t.Parallel()

	pwa, _ := buildconfig.Default().PWA()
	if err := IconSizes(pwa.Options.Manifest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := pwa.Options.Manifest
	m.Icons = []buildconfig.Icon{
		{Src: "/images/symfield_icon_512.png", Sizes: "384x384", Type: "image/png"},
		{Src: "/images/logo.png", Sizes: "96x96", Type: "image/png"},
		{Src: "/images/splash_640x480.png", Sizes: "640x480", Type: "image/png"},
	}
	err := IconSizes(m)
	if !errors.Is(err, ErrIconMismatch) {
		t.Fatalf("expected ErrIconMismatch, got %v", err)
	}
	if strings.Contains(err.Error(), "splash") {
		t.Fatalf("WxH suffix should match, got %v", err)
	}
}

func TestIconAssetsReportsMissingFiles(t *testing.T) {
	t.Parallel()

	files := publicFS(10)
	delete(files, "images/symfield_icon_96.png")

	pwa, _ := buildconfig.Default().PWA()
	err := IconAssets(context.Background(), files, pwa.Options.Manifest)
	if !errors.Is(err, ErrMissingAsset) {
		t.Fatalf("expected ErrMissingAsset, got %v", err)
	}
	if !strings.Contains(err.Error(), "symfield_icon_96.png") {
		t.Fatalf("expected missing icon to be named, got %v", err)
	}
}

func TestCacheCeiling(t *testing.T) {
	t.Parallel()

	pwa, _ := buildconfig.Default().PWA()
	opts := pwa.Options

	if err := CacheCeiling(context.Background(), publicFS(100), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	files := publicFS(100)
	files["assets/huge.js"] = &fstest.MapFile{Data: make([]byte, 4*1024*1024)}
	err := CacheCeiling(context.Background(), files, opts)
	if !errors.Is(err, ErrCacheCeiling) {
		t.Fatalf("expected ErrCacheCeiling, got %v", err)
	}
	if !strings.Contains(err.Error(), "assets/huge.js is 4.0 MiB") {
		t.Fatalf("expected humanized detail, got %v", err)
	}

	opts.Workbox.MaximumFileSizeToCacheInBytes = 0
	if err := CacheCeiling(context.Background(), publicFS(1), opts); !errors.Is(err, ErrCacheCeiling) {
		t.Fatalf("expected ErrCacheCeiling for zero ceiling, got %v", err)
	}
}

func TestRunReportsResolveFailure(t *testing.T) {
	t.Parallel()

	report := Run(context.Background(), Inputs{
		Registry:    params.Builtin(),
		Environment: "bad name",
	})
	if report.OK() {
		t.Fatalf("expected failure for invalid environment name")
	}
	if report.Failed()[0].Name != "resolve" {
		t.Fatalf("expected resolve failure, got %+v", report.Failed())
	}
}
