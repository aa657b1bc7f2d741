package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
)

func TestBuiltinRegistersDevAndDefault(t *testing.T) {
	t.Parallel()

	reg := Builtin()
	if want := []string{"default", "dev"}; !slices.Equal(reg.Names(), want) {
		t.Fatalf("expected %v, got %v", want, reg.Names())
	}

	dev, ok := reg.Get("dev")
	if !ok {
		t.Fatalf("expected dev environment")
	}
	if want := []string{"enableRagReplicas", "enableBotStore", "enableBotStoreReplicas"}; !slices.Equal(dev.SetFields(), want) {
		t.Fatalf("expected dev to set only %v, got %v", want, dev.SetFields())
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.MustSet("qa", Input{AutoJoinUserGroups: []string{"qa"}, BedrockRegion: String("us-west-2")})

	got, _ := reg.Get("qa")
	got.AutoJoinUserGroups[0] = "mutated"
	*got.BedrockRegion = "mutated"

	again, _ := reg.Get("qa")
	if again.AutoJoinUserGroups[0] != "qa" || *again.BedrockRegion != "us-west-2" {
		t.Fatalf("expected registry state to be isolated, got %+v", again)
	}
}

func TestRegistryRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, name := range []string{"", "with space", "tab\tname"} {
		if err := reg.Set(name, Input{}); !errors.Is(err, ErrInvalidEnvironmentName) {
			t.Fatalf("expected ErrInvalidEnvironmentName for %q, got %v", name, err)
		}
	}
}

func TestRegistryOverlayReplacesByName(t *testing.T) {
	t.Parallel()

	reg := Builtin()
	other := NewRegistry()
	other.MustSet("dev", Input{BedrockRegion: String("eu-central-1")})
	other.MustSet("prod", Input{EnableRAGReplicas: Bool(true)})

	reg.Overlay(other)

	if want := []string{"default", "dev", "prod"}; !slices.Equal(reg.Names(), want) {
		t.Fatalf("expected %v, got %v", want, reg.Names())
	}
	dev, _ := reg.Get("dev")
	if dev.EnableBotStore != nil {
		t.Fatalf("overlay should replace the whole dev entry, got %+v", dev)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := Builtin()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(n int) {
			defer wg.Done()
			reg.MustSet(fmt.Sprintf("env-%d", n), Input{TokenValidMinutes: Int(10 + n)})
		}(i)

		go func() {
			defer wg.Done()
			if _, err := Resolve(reg, "dev"); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if reg.Len() != 34 {
		t.Fatalf("expected 34 environments, got %d", reg.Len())
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "parameters.yaml")
	content := `environments:
  default:
    bedrockRegion: us-west-2
    identityProviders: []
    autoJoinUserGroups: [Admins]
  prod:
    enableRagReplicas: true
    tokenValidMinutes: 60
    identityProviders:
      - service: google
        secretName: google-secret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	defaults, ok := reg.Get(DefaultEnvironment)
	if !ok {
		t.Fatalf("expected default environment")
	}
	if defaults.IdentityProviders == nil {
		t.Fatalf("explicit empty list should be kept as set")
	}

	res, err := Resolve(reg, "prod")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	p := res.Parameters
	if p.BedrockRegion != "us-west-2" || p.TokenValidMinutes != 60 || !p.EnableRAGReplicas {
		t.Fatalf("unexpected resolved parameters: %+v", p)
	}
	if len(p.IdentityProviders) != 1 || p.IdentityProviders[0].Service != ServiceGoogle {
		t.Fatalf("unexpected identity providers: %+v", p.IdentityProviders)
	}
}

func TestParseFileBuiltinSwitch(t *testing.T) {
	t.Parallel()

	f, err := ParseFile([]byte("environments:\n  qa:\n    enableBotStore: true\n"))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	if !f.Builtin {
		t.Fatalf("builtin should default to true")
	}
	reg := f.Effective()
	if !reg.Has(DefaultEnvironment) || !reg.Has("dev") || !reg.Has("qa") {
		t.Fatalf("expected compiled-in bundles plus qa, got %v", reg.Names())
	}

	f, err = ParseFile([]byte("builtin: false\nenvironments:\n  qa:\n    enableBotStore: true\n"))
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	if f.Builtin {
		t.Fatalf("expected builtin to be disabled")
	}
	if got := f.Effective().Names(); !slices.Equal(got, []string{"qa"}) {
		t.Fatalf("expected only the file bundles, got %v", got)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("environments:\n  dev:\n    enableRagReplica: false\n")); err == nil {
		t.Fatalf("expected error for misspelled key")
	}

	reg, err := Parse(nil)
	if err != nil {
		t.Fatalf("expected empty document to parse, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Len())
	}
}
