// Command admin manages plans and team flags outside the web server.
//
// Usage:
//
//	admin plans list
//	admin plans create --key=startup --name="Startup" --price=price_123 --setup-billing
//	admin teams mark-ingested <team-id>
//	admin migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/DukeRupert/multitenancy/internal"
	"github.com/DukeRupert/multitenancy/internal/repository"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// openFunc returns a querier and a function that releases it.
type openFunc func(ctx context.Context) (repository.Querier, func() error, error)

func main() {
	if err := newRootCmd(openDatabase).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administer plans and teams",
		SilenceUsage:  true,
	}

	root.AddCommand(newPlansCmd(open))
	root.AddCommand(newTeamsCmd(open))
	root.AddCommand(newMigrateCmd())

	return root
}

// openDatabase connects using DATABASE_URL from the environment or .env.
func openDatabase(ctx context.Context) (repository.Querier, func() error, error) {
	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return repository.New(db), db.Close, nil
}

func connect(ctx context.Context) (*sql.DB, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := internal.RunMigrations(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}
