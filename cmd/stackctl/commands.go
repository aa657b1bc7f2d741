package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/stackctl/internal/application"
	"github.com/eugenenazirov/stackctl/internal/checks"
	"github.com/eugenenazirov/stackctl/internal/config"
	"github.com/eugenenazirov/stackctl/internal/overlay"
	"github.com/eugenenazirov/stackctl/internal/params"
	"github.com/eugenenazirov/stackctl/internal/storage"
)

var errChecksFailed = errors.New("checks failed")

// dispatch runs the parsed command.
func (c *cli) dispatch(ctx context.Context, command string, cfg config.Config, logger *zap.Logger, out io.Writer) error {
	switch command {
	case c.paramsList.FullCommand():
		return runParamsList(cfg, out)
	case c.paramsResolve.FullCommand():
		return runParamsResolve(cfg, envOr(*c.resolveEnv, cfg), *c.resolveStrict, *c.resolveFormat, out)
	case c.paramsCheck.FullCommand():
		return runParamsCheck(ctx, cfg, envOr(*c.checkEnv, cfg), out)
	case c.buildShow.FullCommand():
		return runBuildShow(cfg, *c.buildFormat, out)
	case c.buildManifest.FullCommand():
		return runBuildManifest(cfg, out)
	case c.buildCheck.FullCommand():
		return runBuildCheck(ctx, cfg, out)
	case c.overlayApply.FullCommand():
		return runOverlayApply(ctx, cfg, *c.applyName, *c.applyBackup, logger, out)
	case c.overlayList.FullCommand():
		return runOverlayList(cfg, *c.listName, out)
	case c.serve.FullCommand():
		return runServe(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func envOr(arg string, cfg config.Config) string {
	if arg != "" {
		return arg
	}
	return cfg.Environment
}

func runParamsList(cfg config.Config, out io.Writer) error {
	snap, err := storage.Load(application.Sources(cfg))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENVIRONMENT\tFIELDS SET")
	for _, name := range snap.Registry.Names() {
		in, _ := snap.Registry.Get(name)
		marker := ""
		if name == cfg.Environment {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%d\n", name, marker, len(in.SetFields()))
	}
	if fc := snap.FileContext(); fc != nil {
		fmt.Fprintf(tw, "(cdk.json context)\t%d\n", len(fc.SetFields()))
	}
	return tw.Flush()
}

func runParamsResolve(cfg config.Config, env string, strict bool, format string, out io.Writer) error {
	snap, err := storage.Load(application.Sources(cfg))
	if err != nil {
		return err
	}

	var opts []params.ResolveOption
	if fc := snap.FileContext(); fc != nil {
		opts = append(opts, params.WithFileContext(*fc))
	}
	if strict {
		opts = append(opts, params.WithStrict())
	}

	res, err := params.Resolve(snap.Registry, env, opts...)
	if err != nil {
		return err
	}
	return render(out, format, res)
}

func runParamsCheck(ctx context.Context, cfg config.Config, env string, out io.Writer) error {
	snap, err := storage.Load(application.Sources(cfg))
	if err != nil {
		return err
	}
	report := checks.Run(ctx, checks.Inputs{
		Registry:    snap.Registry,
		Environment: env,
		FileContext: snap.FileContext(),
	})
	return printReport(out, report)
}

func runBuildShow(cfg config.Config, format string, out io.Writer) error {
	build, err := storage.LoadBuild(cfg.Path(cfg.BuildConfigFile))
	if err != nil {
		return err
	}
	return render(out, format, build)
}

func runBuildManifest(cfg config.Config, out io.Writer) error {
	build, err := storage.LoadBuild(cfg.Path(cfg.BuildConfigFile))
	if err != nil {
		return err
	}
	pwa, ok := build.PWA()
	if !ok {
		return errors.New("build configuration has no PWA plugin")
	}
	data, err := pwa.Options.Manifest.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

func runBuildCheck(ctx context.Context, cfg config.Config, out io.Writer) error {
	build, err := storage.LoadBuild(cfg.Path(cfg.BuildConfigFile))
	if err != nil {
		return err
	}
	in := checks.Inputs{Build: build}

	publicDir := cfg.Path(cfg.PublicDir)
	if info, err := os.Stat(publicDir); err == nil && info.IsDir() {
		in.Public = os.DirFS(publicDir)
		if size, count, err := treeSize(in.Public); err == nil {
			fmt.Fprintf(out, "public assets: %s in %s files\n", humanize.IBytes(uint64(size)), humanize.Comma(int64(count)))
		}
	} else {
		fmt.Fprintf(out, "public directory %s not found, asset checks skipped\n", publicDir)
	}

	return printReport(out, checks.Run(ctx, in))
}

func runOverlayApply(ctx context.Context, cfg config.Config, name string, backup bool, logger *zap.Logger, out io.Writer) error {
	app, err := overlay.Load(cfg.ProjectRoot, cfg.OverlaysDir, name,
		overlay.WithBackups(backup),
		overlay.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	res, err := app.Apply(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Applied overlay %s: %d files\n", name, len(res.Applied))
	if res.BackupDir != "" {
		fmt.Fprintf(out, "Backups saved to %s\n", res.BackupDir)
	}
	return nil
}

func runOverlayList(cfg config.Config, name string, out io.Writer) error {
	app, err := overlay.Load(cfg.ProjectRoot, cfg.OverlaysDir, name)
	if err != nil {
		return err
	}

	m := app.Manifest()
	fmt.Fprintf(out, "Overlay: %s\n", name)
	if m.HasMetadata {
		fmt.Fprintf(out, "Description: %s\n", fallback(m.Metadata.Description, "N/A"))
		fmt.Fprintf(out, "Version: %s\n", fallback(m.Metadata.Version, "N/A"))
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSTRATEGY\tSOURCE")
	for _, entry := range app.Plan() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Target, entry.Strategy, fallback(entry.Source, "-"))
	}
	return tw.Flush()
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func printReport(out io.Writer, report checks.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tDETAIL")
	for _, res := range report.Results {
		status := "ok"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Name, status, res.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, len(failed), len(report.Results))
	}
	return nil
}

// render writes v as indented JSON or as YAML. YAML output goes through the
// JSON form so custom JSON marshalers apply to both.
func render(out io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if format != "yaml" {
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("convert to YAML: %w", err)
	}
	resetStyle(&node)
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// resetStyle drops the flow style inherited from JSON so the output reads as
// block YAML.
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		resetStyle(child)
	}
}

func treeSize(fsys fs.FS) (int64, int, error) {
	var (
		size  int64
		count int
	)
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		count++
		return nil
	})
	return size, count, err
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
