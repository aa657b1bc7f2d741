package overlay

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// ManifestFile is the name of the manifest inside an overlay directory.
const ManifestFile = "overlay.config.json"

var (
	// ErrOverlayNotFound is returned when the overlay directory or manifest is missing.
	ErrOverlayNotFound = errors.New("overlay not found")
	// ErrInvalidOverlay is returned when the manifest is malformed.
	ErrInvalidOverlay = errors.New("invalid overlay manifest")
)

// Strategy selects how an overlay file is applied.
type Strategy string

const (
	// StrategyReplace copies a file from the overlay over the target.
	StrategyReplace Strategy = "replace"
	// StrategyMerge deep-merges configs/<basename> into the target JSON file.
	StrategyMerge Strategy = "merge"
	// StrategyPatch applies patches/<basename>.patch or patches/<basename>.json.
	StrategyPatch Strategy = "patch"
)

// Metadata describes an overlay.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// FileEntry is one target of the overlay.
type FileEntry struct {
	Target   string   `json:"target"`
	Strategy Strategy `json:"strategy"`
	// Source is the overlay-relative file for StrategyReplace.
	Source string `json:"source,omitempty"`
}

// Manifest is the parsed overlay.config.json.
type Manifest struct {
	Metadata    Metadata    `json:"metadata"`
	HasMetadata bool        `json:"-"`
	Files       []FileEntry `json:"files"`
}

// Validate checks the manifest entries.
func (m Manifest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Files),
	)
}

// Validate checks a single entry.
func (e FileEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Target, validation.Required, validation.By(relativePath)),
		validation.Field(&e.Strategy, validation.Required, validation.In(StrategyReplace, StrategyMerge, StrategyPatch)),
		validation.Field(&e.Source, validation.When(e.Strategy == StrategyReplace, validation.Required, validation.By(relativePath))),
	)
}

// ReadManifest loads and validates the manifest of the overlay in dir.
// Entries keep the order in which they appear in the file.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrOverlayNotFound, filepath.Join(dir, ManifestFile))
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses overlay.config.json content. Comments are tolerated.
func ParseManifest(data []byte) (Manifest, error) {
	stripped := jsonc.ToJSON(data)
	if !gjson.ValidBytes(stripped) {
		return Manifest{}, fmt.Errorf("%w: invalid JSON", ErrInvalidOverlay)
	}
	doc := gjson.ParseBytes(stripped)

	var m Manifest
	if meta := doc.Get("metadata"); meta.Exists() {
		m.HasMetadata = true
		m.Metadata = Metadata{
			Name:        meta.Get("name").String(),
			Description: meta.Get("description").String(),
			Version:     meta.Get("version").String(),
		}
	}

	files := doc.Get("files")
	if !files.Exists() {
		return Manifest{}, fmt.Errorf("%w: manifest must contain a 'files' section", ErrInvalidOverlay)
	}
	if !files.IsObject() {
		return Manifest{}, fmt.Errorf("%w: 'files' must be an object", ErrInvalidOverlay)
	}

	var parseErr error
	files.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			parseErr = fmt.Errorf("%w: files[%q] must be a string", ErrInvalidOverlay, key.String())
			return false
		}
		m.Files = append(m.Files, entryFor(key.String(), value.String()))
		return true
	})
	if parseErr != nil {
		return Manifest{}, parseErr
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidOverlay, err)
	}
	return m, nil
}

func entryFor(target, source string) FileEntry {
	switch Strategy(source) {
	case StrategyMerge:
		return FileEntry{Target: target, Strategy: StrategyMerge}
	case StrategyPatch:
		return FileEntry{Target: target, Strategy: StrategyPatch}
	default:
		return FileEntry{Target: target, Strategy: StrategyReplace, Source: source}
	}
}

func relativePath(value interface{}) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return errors.New("must be a relative path")
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must not escape the project root")
	}
	return nil
}
