package cli

import (
	"context"
	"fmt"

	"github.com/isdelr/tasktrack-be/internal/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			log.Info().Str("driver", cfg.DatabaseDriver).Msg("Database migrations applied")
			return nil
		},
	}
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, driver, url string) (*database.DB, error) {
	db, err := database.New(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}
