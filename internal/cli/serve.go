package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/tasktrack-be/internal/api"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/config"
	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/isdelr/tasktrack-be/internal/monitoring"
	"github.com/isdelr/tasktrack-be/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	sampler := monitoring.NewStatSampler()
	scheduler, err := newScheduler(cfg, db, sampler)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Dependencies{
		Users:          services.NewUserService(db, auth.NewBcryptHasher(cfg.BcryptCost), nil),
		Tasks:          services.NewTaskService(db, nil),
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret),
		Stats:          sampler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("Server exiting")
	return nil
}

func newScheduler(cfg *config.Config, db *database.DB, sampler *monitoring.StatSampler) (*monitoring.Scheduler, error) {
	scheduler := monitoring.NewScheduler()
	if err := scheduler.Add("system-stats", cfg.StatsSchedule, sampler.Sample); err != nil {
		return nil, err
	}
	if err := scheduler.Add("db-maintenance", cfg.MaintenanceSchedule, db.Optimize); err != nil {
		return nil, err
	}
	// Populate /health before the first scheduled sample.
	if err := sampler.Sample(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Initial system stats sample failed")
	}
	return scheduler, nil
}
