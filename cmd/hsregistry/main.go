package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/hsregistry/pkg/api"
	"github.com/hazyhaar/hsregistry/pkg/config"
	"github.com/hazyhaar/hsregistry/pkg/importer"
	"github.com/hazyhaar/hsregistry/pkg/mapping"
	"github.com/hazyhaar/hsregistry/pkg/school"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmds := map[string]func([]string) error{
		"serve":     cmdServe,
		"mcp":       cmdMCP,
		"import":    cmdImport,
		"build":     cmdBuild,
		"apply":     cmdApply,
		"match":     cmdMatch,
		"normalize": cmdNormalize,
	}
	cmd, ok := cmds[os.Args[1]]
	if !ok {
		usage()
		os.Exit(1)
	}
	if err := cmd(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "hsregistry %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: hsregistry <command> [flags]

Commands:
  serve      Start the HTTP server
  mcp        Serve the MCP tools on stdio
  import     Download NCES directories into the reference dir
  build      Build a mapping table from a roster CSV
  apply      Apply a mapping table to a roster CSV
  match      Match a roster CSV against the NCES reference
  normalize  Print the normalized key of school names
`)
}

// setup loads the configuration named by -config and installs the logger.
func setup(cfgPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.NewLogger(cfg.Log), nil
}

// prepRegistry returns the built-in registry extended with the configured
// override file.
func prepRegistry(path string) (*school.PrepRegistry, error) {
	reg := school.DefaultPrepRegistry()
	if path == "" {
		return reg, nil
	}
	extra, err := school.LoadPrepOverrides(path)
	if err != nil {
		return nil, err
	}
	return reg.With(extra), nil
}

func customEntries(path string) ([]mapping.Entry, error) {
	if path == "" {
		return nil, nil
	}
	return mapping.LoadCustom(path)
}

func openStore(path string) (*mapping.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return mapping.OpenStore(path)
}

// newService builds the shared endpoint state and loads the reference
// directory. A missing reference is logged, not fatal: matching answers
// 503 until a reload succeeds.
func newService(cfg *config.Config, logger *slog.Logger, store *mapping.Store) (*api.Service, error) {
	prep, err := prepRegistry(cfg.Mapping.PrepOverrides)
	if err != nil {
		return nil, err
	}
	custom, err := customEntries(cfg.Mapping.CustomOverrides)
	if err != nil {
		return nil, err
	}
	svc := api.NewService(api.Options{
		Prep:         prep,
		Custom:       custom,
		SkipPrep:     cfg.Mapping.SkipPrep,
		IgnoreState:  cfg.Mapping.IgnoreState,
		Store:        store,
		ReferenceDir: cfg.Data.ReferenceDir,
		Workers:      cfg.Match.Workers,
		BatchLimit:   cfg.Match.BatchLimit,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	})
	if err := svc.Reload(); err != nil {
		logger.Warn("no NCES reference loaded", "dir", cfg.Data.ReferenceDir, "error", err)
	} else {
		logger.Info("NCES reference loaded", "rows", svc.Lookup().Len())
	}
	return svc, nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (default $HSREG_CONFIG or ./config.yaml)")
	fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Data.MappingDB)
	if err != nil {
		return fmt.Errorf("open mapping store: %w", err)
	}
	defer store.Close()

	svc, err := newService(cfg, logger, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(svc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// SIGHUP: reload the NCES reference directory.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go reloadOnSignal(ctx, sighup, svc, logger)

	if cfg.Sources.CheckInterval > 0 {
		sources, err := openSources(ctx, cfg.Data.SourcesDB)
		if err != nil {
			logger.Warn("source checker disabled", "error", err)
		} else {
			defer sources.Close()
			go importer.NewChecker(sources, logger, cfg.Sources.CheckInterval).Start(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hsregistry listening", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reloadOnSignal reloads the reference on every value from sig until ctx
// is done.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, svc *api.Service, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			logger.Info("SIGHUP received, reloading reference")
			if err := svc.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				logger.Info("reference reloaded", "rows", svc.Lookup().Len())
			}
		}
	}
}

func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, logger, err := setup(*cfgPath)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger, nil)
	if err != nil {
		return err
	}
	logger.Info("serving MCP on stdio", "version", version)
	return server.ServeStdio(api.NewMCPServer(svc, version))
}

func openSources(ctx context.Context, path string) (*importer.SourceDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	sources, err := importer.OpenSourceDB(path)
	if err != nil {
		return nil, err
	}
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sources.Seed(seedCtx, importer.All()); err != nil {
		sources.Close()
		return nil, err
	}
	return sources, nil
}
