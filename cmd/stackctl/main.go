package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stackctl/internal/config"
	"github.com/eugenenazirov/stackctl/internal/logging"
)

var signalNotify = signal.Notify

// cli holds the command tree and the values kingpin parses into.
type cli struct {
	app *kingpin.Application

	configFile     *string
	env            *string
	port           *string
	host           *string
	logLevel       *string
	watch          *bool
	watchSet       bool
	rateLimitRPS   *float64
	rateLimitBurst *int

	paramsList    *kingpin.CmdClause
	paramsResolve *kingpin.CmdClause
	resolveEnv    *string
	resolveStrict *bool
	resolveFormat *string
	paramsCheck   *kingpin.CmdClause
	checkEnv      *string

	buildShow     *kingpin.CmdClause
	buildFormat   *string
	buildManifest *kingpin.CmdClause
	buildCheck    *kingpin.CmdClause

	overlayApply *kingpin.CmdClause
	applyName    *string
	applyBackup  *bool
	overlayList  *kingpin.CmdClause
	listName     *string

	serve *kingpin.CmdClause
}

func newCLI() *cli {
	c := &cli{app: kingpin.New("stackctl", "Environment parameters, build configuration and overlays for the chat stack")}
	app := c.app

	c.configFile = app.Flag("config", "Path to YAML configuration file").String()
	c.env = app.Flag("env", "Environment whose parameters are resolved").String()
	c.port = app.Flag("port", "HTTP port of the preview server").String()
	c.host = app.Flag("host", "Host the preview server binds to (overrides the build configuration)").String()
	c.logLevel = app.Flag("log-level", "Log level: debug, info, warn or error").String()
	c.watch = app.Flag("watch", "Reload input files when they change").IsSetByUser(&c.watchSet).Bool()
	c.rateLimitRPS = app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	params := app.Command("params", "Environment parameter bundles")
	c.paramsList = params.Command("list", "List registered environments")
	c.paramsResolve = params.Command("resolve", "Print the resolved parameters of an environment")
	c.resolveEnv = c.paramsResolve.Arg("env", "Environment name (defaults to --env)").String()
	c.resolveStrict = c.paramsResolve.Flag("strict", "Fail on unknown environments instead of falling back to default").Bool()
	c.resolveFormat = c.paramsResolve.Flag("format", "Output format").Default("json").Enum("json", "yaml")
	c.paramsCheck = params.Command("check", "Run the parameter checks")
	c.checkEnv = c.paramsCheck.Arg("env", "Environment name (defaults to --env)").String()

	build := app.Command("build", "Bundler build configuration")
	c.buildShow = build.Command("show", "Print the build configuration")
	c.buildFormat = c.buildShow.Flag("format", "Output format").Default("json").Enum("json", "yaml")
	c.buildManifest = build.Command("manifest", "Print the generated web app manifest")
	c.buildCheck = build.Command("check", "Run the build configuration and asset checks")

	overlay := app.Command("overlay", "Environment-specific configuration overlays")
	c.overlayApply = overlay.Command("apply", "Apply an overlay to the project")
	c.applyName = c.overlayApply.Arg("name", "Overlay name").Required().String()
	c.applyBackup = c.overlayApply.Flag("backup", "Back up files before modifying them").Bool()
	c.overlayList = overlay.Command("list", "List the files an overlay manages")
	c.listName = c.overlayList.Arg("name", "Overlay name").Required().String()

	c.serve = app.Command("serve", "Run the preview server")

	return c
}

// overrides converts parsed flags into configuration overrides.
func (c *cli) overrides() *config.CLIOverrides {
	o := &config.CLIOverrides{ConfigFile: *c.configFile}
	if *c.env != "" {
		o.Environment = c.env
	}
	if *c.port != "" {
		o.Port = c.port
	}
	if *c.host != "" {
		o.Host = c.host
	}
	if *c.logLevel != "" {
		o.LogLevel = c.logLevel
	}
	if c.watchSet {
		o.Watch = c.watch
	}
	if *c.rateLimitRPS >= 0 {
		o.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		o.RateLimitBurst = c.rateLimitBurst
	}
	return o
}

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	cfg, err := config.Load(c.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(
		logging.WithLevel(cfg.LogLevel),
		logging.WithDevelopment(command != c.serve.FullCommand()),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signalContext(context.Background(), logger)
	defer stop()

	if err := c.dispatch(ctx, command, cfg, logger, os.Stdout); err != nil {
		logger.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-quit:
			logger.Info("signal received", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
