package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/stackctl/internal/api"
	"github.com/eugenenazirov/stackctl/internal/config"
	"github.com/eugenenazirov/stackctl/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg     config.Config
	sources storage.Sources
	storage *storage.MemoryStorage
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sources := Sources(cfg)
	snap, err := storage.Load(sources)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration inputs: %w", err)
	}
	if err := snap.Build.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate build configuration: %w", err)
	}

	store := storage.NewMemoryStorage()
	if err := store.Replace(snap); err != nil {
		return nil, fmt.Errorf("failed to store configuration inputs: %w", err)
	}

	publicDir, err := resolveProjectPath(cfg.Path(cfg.PublicDir))
	if err != nil {
		logger.Warn("public directory not found, static files and asset checks disabled",
			zap.String("public_dir", cfg.PublicDir))
		publicDir = ""
	}

	handlerOpts := []api.HandlerOption{api.WithEnvironment(cfg.Environment)}
	if publicDir != "" {
		handlerOpts = append(handlerOpts, api.WithPublicFS(os.DirFS(publicDir)))
	}
	handler := api.NewHandler(store, handlerOpts...)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(apiRouter, publicDir)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	host := cfg.Host
	if host == "" {
		host = snap.Build.Server.Host.ListenHost()
	}

	return &App{
		cfg:     cfg,
		sources: sources,
		storage: store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, host, rootHandler),
	}, nil
}

// Sources returns the input files named by cfg, resolved against the project root.
func Sources(cfg config.Config) storage.Sources {
	return storage.Sources{
		ParametersFile:  cfg.Path(cfg.ParametersFile),
		CDKJSON:         cfg.Path(cfg.CDKJSON),
		BuildConfigFile: cfg.Path(cfg.BuildConfigFile),
	}
}

// BuildRootHandler constructs the root HTTP handler that routes API and
// manifest requests and serves the public directory. An empty publicDir
// disables static files.
func BuildRootHandler(apiHandler http.Handler, publicDir string) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/manifest.webmanifest", apiHandler)

	if publicDir == "" {
		mux.Handle("/", http.NotFoundHandler())
		return mux, nil
	}

	info, err := os.Stat(publicDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", publicDir)
	}
	mux.Handle("/", http.FileServer(http.Dir(publicDir)))
	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, host string, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(host, addr)
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves HTTP and, when enabled, watches the input files until ctx is
// cancelled, then shuts the server down within the grace period.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("environment", a.cfg.Environment),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	if a.cfg.Watch {
		if paths := a.WatchedFiles(); len(paths) > 0 {
			g.Go(func() error {
				return watchFiles(ctx, paths, a.cfg.WatchDebounce, a.logger, func(changed []string) {
					a.logger.Info("input files changed, reloading", zap.Strings("files", changed))
					if err := a.Reload(); err != nil {
						a.logger.Error("reload failed, keeping previous values", zap.Error(err))
						return
					}
					a.logger.Info("reload complete")
				})
			})
		}
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGracePeriod)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("graceful shutdown failed", zap.Error(err))
			if closeErr := a.server.Close(); closeErr != nil {
				a.logger.Error("forced close failed", zap.Error(closeErr))
			}
		}
		return nil
	})

	return g.Wait()
}

// Reload re-reads every input file. Inputs that fail to load or validate keep
// their previous value; the failures are joined into the returned error.
func (a *App) Reload() error {
	var errs []error

	if reg, err := storage.LoadRegistry(a.sources.ParametersFile); err != nil {
		errs = append(errs, err)
	} else if err := a.storage.ReplaceRegistry(reg); err != nil {
		errs = append(errs, err)
	}

	if build, err := storage.LoadBuild(a.sources.BuildConfigFile); err != nil {
		errs = append(errs, err)
	} else if err := a.storage.ReplaceBuild(build); err != nil {
		errs = append(errs, err)
	}

	if cdk, err := storage.LoadCDK(a.sources.CDKJSON); err != nil {
		errs = append(errs, err)
	} else {
		a.storage.ReplaceCDK(cdk)
	}

	return errors.Join(errs...)
}

// WatchedFiles lists the input files that trigger a reload.
func (a *App) WatchedFiles() []string {
	var out []string
	for _, p := range []string{a.sources.ParametersFile, a.sources.CDKJSON, a.sources.BuildConfigFile} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Storage returns the live configuration store.
func (a *App) Storage() storage.Storage {
	return a.storage
}

// resolveProjectPath locates a file or directory. Absolute paths are checked
// as given; relative paths are tried from the working directory upwards.
func resolveProjectPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		if _, err := os.Stat(relative); err != nil {
			return "", err
		}
		return relative, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s: %w", relative, fs.ErrNotExist)
}
