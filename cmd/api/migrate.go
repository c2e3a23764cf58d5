package main

import (
	"fmt"

	"todoTracker/internal/config"
	"todoTracker/internal/logger"
	"todoTracker/internal/repository/task/postgres"

	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
		Long: `Apply or roll back the PostgreSQL schema.

The SQLite repository migrates itself when it opens its file, and the
in-memory and Firestore repositories have no schema.

Examples:
  todo-tracker migrate up
  TODO_DATABASE_URL=postgres://... todo-tracker migrate down`,
	}

	run := func(apply func(string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Repository.Type != config.RepositoryPostgres {
				return fmt.Errorf("migrations apply to the postgres repository, configured type is %q", cfg.Repository.Type)
			}
			if err := logger.Init(cfg.Logging.Development); err != nil {
				return err
			}
			defer logger.Sync()
			return apply(cfg.Database.URL)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(postgres.MigrateUp),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE:  run(postgres.MigrateDown),
	})
	return cmd
}
