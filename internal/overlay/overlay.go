// Package overlay applies environment-specific configuration overlays to a
// project tree. An overlay is a directory holding overlay.config.json plus the
// files it references; each target is either replaced by an overlay file,
// deep-merged with an overlay JSON document, or patched.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// Applicator applies one overlay to a project root.
type Applicator struct {
	name      string
	root      string
	dir       string
	manifest  Manifest
	backupDir string
	logger    *zap.Logger
	patchCmd  string
}

// Option configures an Applicator.
type Option func(*Applicator)

// WithBackups copies every existing target to <root>/.backups/<name>/ before
// it is modified.
func WithBackups(enabled bool) Option {
	return func(a *Applicator) {
		if enabled {
			a.backupDir = filepath.Join(a.root, ".backups", a.name)
		} else {
			a.backupDir = ""
		}
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Applicator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPatchCommand overrides the executable used for unified diffs.
func WithPatchCommand(cmd string) Option {
	return func(a *Applicator) {
		a.patchCmd = cmd
	}
}

// Load reads overlaysDir/name/overlay.config.json. overlaysDir is resolved
// against root when relative.
func Load(root, overlaysDir, name string, opts ...Option) (*Applicator, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid overlay name %q", ErrOverlayNotFound, name)
	}
	if !filepath.IsAbs(overlaysDir) {
		overlaysDir = filepath.Join(root, overlaysDir)
	}
	dir := filepath.Join(overlaysDir, name)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: directory %s", ErrOverlayNotFound, dir)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	a := &Applicator{
		name:     name,
		root:     root,
		dir:      dir,
		manifest: manifest,
		logger:   zap.NewNop(),
		patchCmd: "patch",
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.backupDir != "" {
		if err := os.MkdirAll(a.backupDir, 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
	}
	return a, nil
}

// Name returns the overlay name.
func (a *Applicator) Name() string { return a.name }

// Manifest returns the parsed manifest.
func (a *Applicator) Manifest() Manifest { return a.manifest }

// Plan returns the files the overlay manages, in manifest order.
func (a *Applicator) Plan() []FileEntry {
	out := make([]FileEntry, len(a.manifest.Files))
	copy(out, a.manifest.Files)
	return out
}

// Result summarizes an Apply call.
type Result struct {
	Applied   []string
	BackupDir string
}

// Apply processes every manifest entry in order and stops at the first failure.
func (a *Applicator) Apply(ctx context.Context) (Result, error) {
	fields := []zap.Field{zap.String("overlay", a.name)}
	if a.manifest.HasMetadata {
		fields = append(fields,
			zap.String("description", fallback(a.manifest.Metadata.Description, "No description")),
			zap.String("version", fallback(a.manifest.Metadata.Version, "Unknown")),
		)
	}
	a.logger.Info("applying overlay", fields...)

	var res Result
	for _, entry := range a.manifest.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a.logger.Info("processing file",
			zap.String("target", entry.Target),
			zap.String("strategy", string(entry.Strategy)),
			zap.String("source", entry.Source),
		)
		if err := a.process(ctx, entry); err != nil {
			a.logger.Error("overlay application failed", zap.String("target", entry.Target), zap.Error(err))
			return res, fmt.Errorf("%s: %w", entry.Target, err)
		}
		res.Applied = append(res.Applied, entry.Target)
	}

	res.BackupDir = a.backupDir
	a.logger.Info("overlay applied",
		zap.Int("files", len(res.Applied)),
		zap.String("backup_dir", res.BackupDir),
	)
	return res, nil
}

func (a *Applicator) process(ctx context.Context, entry FileEntry) error {
	target := filepath.Join(a.root, filepath.FromSlash(entry.Target))

	if a.backupDir != "" {
		if err := a.backup(entry.Target, target); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	switch entry.Strategy {
	case StrategyMerge:
		return a.merge(target)
	case StrategyPatch:
		return a.patch(ctx, target)
	default:
		return a.replace(target, entry.Source)
	}
}

func (a *Applicator) backup(rel, target string) error {
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat target: %w", err)
	}
	dst := filepath.Join(a.backupDir, strings.ReplaceAll(filepath.ToSlash(rel), "/", "_"))
	if err := copyFile(target, dst); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

func (a *Applicator) replace(target, source string) error {
	src := filepath.Join(a.dir, filepath.FromSlash(source))
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source file not found: %s", src)
	}
	if err := copyFile(src, target); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	a.logger.Debug("replaced file", zap.String("target", target), zap.String("source", src))
	return nil
}

func (a *Applicator) merge(target string) error {
	overlayFile := filepath.Join(a.dir, "configs", filepath.Base(target))
	overlayDoc, err := readJSONObject(overlayFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("overlay config not found: %s", overlayFile)
		}
		return err
	}

	base := []byte("{}")
	if _, statErr := os.Stat(target); statErr == nil {
		base, err = readJSONObject(target)
		if err != nil {
			return err
		}
	}

	merged, err := MergeJSON(base, overlayDoc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, merged, 0o644); err != nil {
		return fmt.Errorf("write merged JSON: %w", err)
	}
	a.logger.Debug("merged file", zap.String("target", target), zap.String("overlay", overlayFile))
	return nil
}

func (a *Applicator) patch(ctx context.Context, target string) error {
	base := filepath.Base(target)
	patchFile := filepath.Join(a.dir, "patches", base+".patch")
	replacementsFile := filepath.Join(a.dir, "patches", base+".json")

	switch {
	case fileExists(patchFile):
		return a.unixPatch(ctx, target, patchFile)
	case fileExists(replacementsFile):
		return a.stringReplacements(target, replacementsFile)
	default:
		return fmt.Errorf("no patch file found for %s (looked for %s or %s)", base, patchFile, replacementsFile)
	}
}

func (a *Applicator) unixPatch(ctx context.Context, target, patchFile string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.patchCmd, target, patchFile)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unix patch failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	a.logger.Debug("applied unix patch", zap.String("target", target), zap.String("patch", patchFile))
	return nil
}

func (a *Applicator) stringReplacements(target, replacementsFile string) error {
	data, err := os.ReadFile(replacementsFile)
	if err != nil {
		return fmt.Errorf("read replacements: %w", err)
	}
	rules := gjson.ParseBytes(jsonc.ToJSON(data))
	if !rules.IsObject() {
		return fmt.Errorf("replacements in %s must be a JSON object", replacementsFile)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("target file not found for patching: %s", target)
		}
		return fmt.Errorf("read target: %w", err)
	}

	text := string(content)
	count := 0
	rules.ForEach(func(oldValue, newValue gjson.Result) bool {
		text = strings.ReplaceAll(text, oldValue.String(), newValue.String())
		count++
		return true
	})

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := os.WriteFile(target, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	a.logger.Debug("applied string replacements", zap.String("target", target), zap.Int("replacements", count))
	return nil
}

// MergeJSON merges the JSON object overlay into base and returns the result
// indented by two spaces. Nested objects merge recursively; any other overlay
// value replaces the base value. Keys keep their order in base, with new keys
// appended in overlay order, and values are copied verbatim so numbers keep
// their exact literals.
func MergeJSON(base, overlay []byte) ([]byte, error) {
	b, o := gjson.ParseBytes(base), gjson.ParseBytes(overlay)
	if !gjson.ValidBytes(base) || !b.IsObject() {
		return nil, errors.New("merge base must be a JSON object")
	}
	if !gjson.ValidBytes(overlay) || !o.IsObject() {
		return nil, errors.New("merge overlay must be a JSON object")
	}
	merged := mergeObjects(nil, b, o)
	return pretty.PrettyOptions(merged, &pretty.Options{Indent: "  "}), nil
}

func mergeObjects(buf []byte, base, overlay gjson.Result) []byte {
	overrides := make(map[string]gjson.Result)
	overlay.ForEach(func(key, value gjson.Result) bool {
		overrides[key.String()] = value
		return true
	})

	written := make(map[string]bool)
	writeKey := func(key gjson.Result) {
		if len(written) > 0 {
			buf = append(buf, ',')
		}
		written[key.String()] = true
		buf = append(buf, key.Raw...)
		buf = append(buf, ':')
	}

	buf = append(buf, '{')
	base.ForEach(func(key, value gjson.Result) bool {
		if written[key.String()] {
			return true
		}
		writeKey(key)
		over, ok := overrides[key.String()]
		switch {
		case ok && value.IsObject() && over.IsObject():
			buf = mergeObjects(buf, value, over)
		case ok:
			buf = append(buf, over.Raw...)
		default:
			buf = append(buf, value.Raw...)
		}
		return true
	})
	overlay.ForEach(func(key, _ gjson.Result) bool {
		if written[key.String()] {
			return true
		}
		writeKey(key)
		buf = append(buf, overrides[key.String()].Raw...)
		return true
	})
	return append(buf, '}')
}

// readJSONObject reads path as JSON, tolerating comments and trailing commas.
func readJSONObject(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := jsonc.ToJSON(data)
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("parse %s: invalid JSON", path)
	}
	switch res := gjson.ParseBytes(doc); {
	case res.Type == gjson.Null:
		return []byte("{}"), nil
	case !res.IsObject():
		return nil, fmt.Errorf("parse %s: expected a JSON object", path)
	}
	return doc, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
