// Package checks runs data-integrity checks over the parameter registry and
// the build configuration: baseline completeness of the default bundle,
// address-space coverage of the allow-lists, and consistency of the manifest
// icons with the public assets.
package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/stackctl/internal/buildconfig"
	"github.com/eugenenazirov/stackctl/internal/netrange"
	"github.com/eugenenazirov/stackctl/internal/params"
)

var (
	// ErrIconMismatch indicates an icon whose declared size disagrees with its file name.
	ErrIconMismatch = errors.New("icon size does not match file name")
	// ErrMissingAsset indicates an icon that does not exist in the public directory.
	ErrMissingAsset = errors.New("icon asset not found")
	// ErrCacheCeiling indicates a precache ceiling too small for the public assets.
	ErrCacheCeiling = errors.New("cache ceiling too small")
)

// Result is the outcome of one check.
type Result struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report collects check results.
type Report struct {
	Results []Result `json:"results"`
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// Failed returns the failed results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) add(name string, err error) {
	res := Result{Name: name, OK: err == nil}
	if err != nil {
		res.Detail = err.Error()
	}
	r.Results = append(r.Results, res)
}

// DefaultCoverage verifies that merging the default bundle with any named
// bundle never leaves a field undefined that the default bundle defines. A
// named bundle fails it by blanking such a field, e.g. bedrockRegion: "" or
// autoJoinUserGroups: [].
func DefaultCoverage(reg *params.Registry) error {
	defaults, ok := reg.Get(params.DefaultEnvironment)
	if !ok {
		return nil
	}
	supplied := defaults.DefinedFields()

	var errs []error
	for _, name := range reg.Names() {
		in, _ := reg.Get(name)
		merged := params.MergeInputs(defaults, in).DefinedFields()
		for _, field := range supplied {
			if !slices.Contains(merged, field) {
				errs = append(errs, fmt.Errorf("environment %s: field %s defined by default is blank after merge", name, field))
			}
		}
	}
	return errors.Join(errs...)
}

// CIDRCoverage verifies that each allow-list spans its whole address space.
func CIDRCoverage(p params.Parameters) error {
	lists := []struct {
		name   string
		family netrange.Family
		cidrs  []string
	}{
		{"allowedIpV4AddressRanges", netrange.IPv4, p.AllowedIPv4AddressRanges},
		{"allowedIpV6AddressRanges", netrange.IPv6, p.AllowedIPv6AddressRanges},
		{"publishedApiAllowedIpV4AddressRanges", netrange.IPv4, p.PublishedAPIAllowedIPv4AddressRanges},
		{"publishedApiAllowedIpV6AddressRanges", netrange.IPv6, p.PublishedAPIAllowedIPv6AddressRanges},
	}

	var errs []error
	for _, l := range lists {
		gap, err := netrange.FirstGap(l.family, l.cidrs)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
			continue
		}
		if gap.IsValid() {
			errs = append(errs, fmt.Errorf("%s: %s not covered", l.name, gap))
		}
	}
	return errors.Join(errs...)
}

var iconSuffixPattern = regexp.MustCompile(`(\d+)(?:x(\d+))?\.[A-Za-z0-9]+$`)

// IconSizes verifies that each icon's declared size matches the pixel
// dimension encoded in its file name, e.g. "512x512" for "icon_512.png".
func IconSizes(m buildconfig.Manifest) error {
	var errs []error
	for _, icon := range m.Icons {
		w, h, err := icon.Dimensions()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		match := iconSuffixPattern.FindStringSubmatch(path.Base(icon.Src))
		if match == nil {
			errs = append(errs, fmt.Errorf("%w: %s has no pixel suffix", ErrIconMismatch, icon.Src))
			continue
		}
		fw, _ := strconv.Atoi(match[1])
		fh := fw
		if match[2] != "" {
			fh, _ = strconv.Atoi(match[2])
		}
		if fw != w || fh != h {
			errs = append(errs, fmt.Errorf("%w: %s declares %s", ErrIconMismatch, icon.Src, icon.Sizes))
		}
	}
	return errors.Join(errs...)
}

// IconAssets verifies that every icon exists in the public asset tree.
func IconAssets(ctx context.Context, public fs.FS, m buildconfig.Manifest) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, icon := range m.Icons {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := fs.Stat(public, assetPath(icon.Src))
			if err == nil && info.IsDir() {
				err = errors.New("is a directory")
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrMissingAsset, icon.Src, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// CacheCeiling verifies that the precache ceiling is positive and admits the
// largest file of the public asset tree.
func CacheCeiling(ctx context.Context, public fs.FS, opts buildconfig.PWAOptions) error {
	ceiling := opts.Workbox.MaximumFileSizeToCacheInBytes
	if ceiling <= 0 {
		return fmt.Errorf("%w: ceiling must be positive, got %d", ErrCacheCeiling, ceiling)
	}

	var (
		largest     int64
		largestPath string
	)
	err := fs.WalkDir(public, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > largest {
			largest, largestPath = info.Size(), p
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk public assets: %w", err)
	}

	if largest > ceiling {
		return fmt.Errorf("%w: %s is %s, ceiling is %s", ErrCacheCeiling, largestPath,
			humanize.IBytes(uint64(largest)), opts.Workbox)
	}
	return nil
}

// Inputs are the values Run checks.
type Inputs struct {
	Registry    *params.Registry
	Environment string
	FileContext *params.Input
	Build       *buildconfig.Config
	// Public is the static asset tree; asset checks are skipped when nil.
	Public fs.FS
}

// Run executes every applicable check.
func Run(ctx context.Context, in Inputs) Report {
	var report Report

	if in.Registry != nil {
		report.add("default-coverage", DefaultCoverage(in.Registry))

		var opts []params.ResolveOption
		if in.FileContext != nil {
			opts = append(opts, params.WithFileContext(*in.FileContext))
		}
		res, err := params.Resolve(in.Registry, in.Environment, opts...)
		if err != nil {
			report.add("resolve", err)
		} else {
			report.add("parameters-valid", res.Parameters.Validate())
			report.add("cidr-coverage", CIDRCoverage(res.Parameters))
		}
	}

	if in.Build != nil {
		report.add("build-valid", in.Build.Validate())
		if pwa, ok := in.Build.PWA(); ok {
			report.add("icon-sizes", IconSizes(pwa.Options.Manifest))
			if in.Public != nil {
				report.add("icon-assets", IconAssets(ctx, in.Public, pwa.Options.Manifest))
				report.add("cache-ceiling", CacheCeiling(ctx, in.Public, pwa.Options))
			}
		}
	}

	return report
}

func assetPath(src string) string {
	return strings.TrimPrefix(path.Clean("/"+src), "/")
}
