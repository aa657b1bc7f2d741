package buildconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the YAML override layout. Keys that are present replace the
// corresponding defaults; the icon list is replaced as a whole.
type fileDocument struct {
	Resolve Resolve    `yaml:"resolve"`
	PWA     PWAOptions `yaml:"pwa"`
	Server  Server     `yaml:"server"`
}

// LoadFile reads a YAML override file and applies it over Default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse applies a YAML override document over Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	pwa, _ := cfg.PWA()

	doc := fileDocument{
		Resolve: cfg.Resolve,
		PWA:     pwa.Options,
		Server:  cfg.Server,
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	cfg.Resolve = doc.Resolve
	cfg.Server = doc.Server
	pwa.Options = doc.PWA
	return cfg, nil
}
