package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/subview/internal/config"
	"github.com/MimeLyc/subview/internal/httpapi"
	"github.com/MimeLyc/subview/internal/library"
	"github.com/MimeLyc/subview/internal/position"
	"github.com/MimeLyc/subview/internal/service"
	"github.com/MimeLyc/subview/internal/viewer"
	"github.com/MimeLyc/subview/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronRunner interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser player and HTTP API",
		Long: `Serve the browser player and its HTTP API.

Configuration comes from the environment (and a .env file), see
SUBVIEW_ADDR, MEDIA_DIR, POSITION_BACKEND and friends.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides SUBVIEW_ADDR")
	cmd.Flags().String("media-dir", "", "Library root, overrides MEDIA_DIR")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	mediaDir, _ := cmd.Flags().GetString("media-dir")
	cfg, err := config.NewFromEnv(config.WithAddr(addr), config.WithMediaDir(mediaDir))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	settingsPath := cfg.System.SettingsFile
	initial, err := config.LoadRuntimeSettings(settingsPath, cfg.RuntimeSettings())
	if err != nil {
		log.Warn("Ignoring settings file: %v", err)
	}
	if err := initial.Validate(); err != nil {
		log.Warn("Ignoring saved settings: %v", err)
		initial = cfg.RuntimeSettings()
	}
	cfg.ApplyRuntimeSettings(initial)

	settings, err := config.NewRuntimeSettingsStore(settingsPath, initial)
	if err != nil {
		return fmt.Errorf("runtime settings: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := position.Open(ctx, cfg.Position.Settings())
	if err != nil {
		return fmt.Errorf("open position store: %w", err)
	}
	defer store.Close()

	cronEngine := cron.New()
	purge := service.NewPurgeService(store, cronEngine, cfg.Position.PurgeCron)
	registry := viewer.NewRegistry(store)

	srv := httpapi.NewServer(registry, store,
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
		httpapi.WithLibrary(library.NewScanner(cfg.Media.Dir)),
		httpapi.WithUploads(cfg.UploadDir(), cfg.HTTP.MaxUploadBytes()),
		httpapi.WithCORSOrigins(cfg.HTTP.CORSOrigins),
		httpapi.WithRuntimeSettingsStore(settings),
		httpapi.WithRuntimeSettingsApplier(func(next config.RuntimeSettings) error {
			return purge.ApplyRuntimeSettings(ctx, next)
		}),
		httpapi.WithStatusSection("purge", func() any { return purge.Status() }),
		httpapi.WithStatusSection("position_backend", func() any { return cfg.Position.Backend }),
	)

	return runWithComponents(ctx, cfg, purge, cronEngine, srv)
}

// runWithComponents schedules background jobs, starts cron and runs the
// HTTP server until ctx ends or the server fails.
func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	sched scheduler,
	cronEngine cronRunner,
	httpSrv httpServer,
) error {
	if err := sched.Schedule(ctx); err != nil {
		return fmt.Errorf("schedule jobs: %w", err)
	}
	cronEngine.Start()
	defer cronEngine.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
