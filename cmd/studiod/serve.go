package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"studiod/internal/auth"
	"studiod/internal/common/fsutil"
	"studiod/internal/config"
	"studiod/internal/console"
	"studiod/internal/httpapi"
	"studiod/internal/installer"
	"studiod/internal/registry"
	"studiod/internal/scripts"
	"studiod/internal/session"
	"studiod/internal/status"
	"studiod/pkg/types"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control panel HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closer, err := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ensureDirs := func() error {
		for _, d := range []string{cfg.StatusDir, cfg.OutputDir} {
			if err := fsutil.EnsureDir(d); err != nil {
				return fmt.Errorf("create %s: %w", d, err)
			}
		}
		return nil
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	fetcher := scripts.NewFetcher(cfg.RawBaseURL, config.Seconds(cfg.FetchTimeoutSec))
	catalog := scripts.NewCatalog(fetcher, cfg.NodesScript, cfg.ModelsScript)
	store := status.NewStore(cfg.StatusDir)
	out := console.New()

	orch := installer.New(installer.Config{
		Store:    store,
		Output:   out,
		Source:   fetcher,
		RepoURL:  cfg.RepoURL,
		GitBin:   cfg.GitBin,
		ComfyDir: cfg.ComfyDir,
		Scripts: map[types.Component]string{
			types.ComponentComfyApp: cfg.ComfyScript,
			types.ComponentModels:   cfg.ModelsScript,
			types.ComponentPlugins:  cfg.NodesScript,
		},
		PluginTimeout: config.Seconds(cfg.PluginTimeoutSec),
		ModelTimeout:  config.Seconds(cfg.ModelTimeoutSec),
		ScriptTimeout: config.Seconds(cfg.ScriptTimeoutSec),
		Logger:        &logger,
	})

	sup := session.New(session.Config{
		OutputDir:     cfg.OutputDir,
		Notebook:      session.NotebookCommand(cfg.NotebookBin, cfg.NotebookPort, cfg.Workspace),
		ArtServer:     session.ArtServerCommand(cfg.ArtPython, cfg.ComfyDir, cfg.ArtPort, cfg.Workspace),
		ProbeURL:      "http://127.0.0.1:" + strconv.Itoa(cfg.ArtPort) + cfg.ProbePath,
		ReadyDelay:    config.Seconds(cfg.ReadyDelaySec),
		ReadyInterval: config.Seconds(cfg.ReadyIntervalSec),
		ReadyAttempts: cfg.ReadyAttempts,
		ProbeTimeout:  config.Seconds(cfg.ProbeTimeoutSec),
		Logger:        &logger,
	})

	inv, err := registry.New(cfg.ComfyDir, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}

	tokens, err := auth.NewTokens(cfg.TokenSecret, 0)
	if err != nil {
		return err
	}
	if cfg.UsesDefaultPassword() {
		logger.Warn().Msg("admin password is the stock default; set admin_password_hash")
	}
	if cfg.TokenSecret == "" {
		logger.Info().Msg("no token_secret configured; admin sessions end on restart")
	}

	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(ctx)
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins, nil, nil)
	}
	mux := httpapi.NewMux(httpapi.Deps{
		PodID:      cfg.PodID,
		Status:     store,
		Catalog:    catalog,
		Installer:  orch,
		Output:     out,
		Sessions:   sup,
		Inventory:  inv,
		Verifier:   auth.NewVerifier(cfg.AdminPasswordHash),
		Tokens:     tokens,
		EnsureDirs: ensureDirs,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Str("workspace", cfg.Workspace).Str("pod_id", cfg.PodID).Msg("studiod listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown(logger, srv, orch, sup)
		return nil
	})
	return g.Wait()
}

// shutdown stops accepting requests, then cancels any install run and
// terminates session children.
func shutdown(logger zerolog.Logger, srv *http.Server, orch *installer.Orchestrator, sup *session.Supervisor) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	orch.Close()
	sup.Close()
	logger.Info().Msg("studiod stopped")
}
