package storage

import (
	"fmt"

	"github.com/eugenenazirov/stackctl/internal/buildconfig"
	"github.com/eugenenazirov/stackctl/internal/cdkcontext"
	"github.com/eugenenazirov/stackctl/internal/params"
)

// Sources names the files the inputs are read from. Empty paths select the
// compiled-in values.
type Sources struct {
	ParametersFile  string
	CDKJSON         string
	BuildConfigFile string
}

// Load reads every source. Bundles from ParametersFile replace compiled-in
// bundles of the same name unless the file opts out of the compiled-in
// registry; a missing cdk.json is not an error.
func Load(src Sources) (Snapshot, error) {
	reg, err := LoadRegistry(src.ParametersFile)
	if err != nil {
		return Snapshot{}, err
	}

	build, err := LoadBuild(src.BuildConfigFile)
	if err != nil {
		return Snapshot{}, err
	}

	cdk, err := LoadCDK(src.CDKJSON)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Registry: reg, Build: build, CDK: cdk}, nil
}

// LoadRegistry returns the compiled-in registry overlaid with path, or only
// the bundles of path when it sets builtin: false.
func LoadRegistry(path string) (*params.Registry, error) {
	if path == "" {
		return params.Builtin(), nil
	}
	f, err := params.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load parameters file: %w", err)
	}
	return f.Effective(), nil
}

// LoadBuild returns the default build configuration, or path decoded over it.
func LoadBuild(path string) (*buildconfig.Config, error) {
	if path == "" {
		return buildconfig.Default(), nil
	}
	cfg, err := buildconfig.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load build config: %w", err)
	}
	return cfg, nil
}

// LoadCDK reads path; the result is nil when path is empty or absent.
func LoadCDK(path string) (*cdkcontext.File, error) {
	if path == "" {
		return nil, nil
	}
	file, found, err := cdkcontext.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load cdk.json: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &file, nil
}
