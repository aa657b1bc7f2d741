package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the YAML layout of a parameters file:
//
//	builtin: false
//	environments:
//	  dev:
//	    enableRagReplicas: false
//	  default:
//	    bedrockRegion: us-east-1
type fileDocument struct {
	Builtin      *bool            `yaml:"builtin"`
	Environments map[string]Input `yaml:"environments"`
}

// File is a decoded parameters file.
type File struct {
	// Builtin reports whether the file's bundles extend the compiled-in
	// registry. It defaults to true; with false the file is the whole registry,
	// so fields it leaves unset come from cdk.json and the baseline.
	Builtin  bool
	Registry *Registry
}

// Effective returns the registry the file describes: its bundles over the
// compiled-in ones, or its bundles alone when Builtin is false.
func (f File) Effective() *Registry {
	if !f.Builtin {
		return f.Registry.Clone()
	}
	reg := Builtin()
	reg.Overlay(f.Registry)
	return reg
}

// ReadFile reads and decodes a YAML parameters file.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read file: %w", err)
	}

	f, err := ParseFile(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadFile reads a YAML parameters file into a new registry holding only the
// file's bundles.
func LoadFile(path string) (*Registry, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Registry, nil
}

// Parse decodes a YAML parameters document into a registry of its bundles.
func Parse(data []byte) (*Registry, error) {
	f, err := ParseFile(data)
	if err != nil {
		return nil, err
	}
	return f.Registry, nil
}

// ParseFile decodes a YAML parameters document. Unknown keys are rejected so a
// misspelled parameter does not silently fall back to its default.
func ParseFile(data []byte) (File, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse YAML: %w", err)
	}

	f := File{Builtin: true, Registry: NewRegistry()}
	if doc.Builtin != nil {
		f.Builtin = *doc.Builtin
	}
	for name, in := range doc.Environments {
		if err := f.Registry.Set(name, in); err != nil {
			return File{}, err
		}
	}
	return f, nil
}
