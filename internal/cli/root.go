// Package cli wires configuration, storage and the HTTP server into the
// tasktrack command.
package cli

import (
	"github.com/isdelr/tasktrack-be/internal/config"
	"github.com/isdelr/tasktrack-be/internal/logger"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tasktrack",
		Short:         "Multi-user task tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}

// loadConfig reads the environment and configures the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}
