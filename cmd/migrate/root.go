package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/tripplanner/migrations"
)

var errNoDatabase = errors.New("database URL not set: pass --database-url or set DATABASE_URL")

func newRootCmd() *cobra.Command {
	var dbURL string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "migrate manages the trip planner database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbURL, "database-url", "", "Postgres connection string (default $DATABASE_URL)")

	// withProvider opens the database, runs fn against a goose provider for
	// the embedded migrations, and closes the database again.
	withProvider := func(cmd *cobra.Command, fn func(ctx context.Context, p *goose.Provider) error) error {
		dsn := dbURL
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			return errNoDatabase
		}

		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
		if err != nil {
			return fmt.Errorf("create goose provider: %w", err)
		}
		return fn(cmd.Context(), p)
	}

	root.AddCommand(
		newUpCmd(withProvider),
		newDownCmd(withProvider),
		newStatusCmd(withProvider),
	)
	return root
}

type providerFunc func(cmd *cobra.Command, fn func(ctx context.Context, p *goose.Provider) error) error

func newUpCmd(run providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, p *goose.Provider) error {
				results, err := p.Up(ctx)
				printResults(cmd, results)
				if err != nil {
					return fmt.Errorf("migrate up: %w", err)
				}
				if len(results) == 0 {
					cmd.Println("no pending migrations")
				}
				return nil
			})
		},
	}
}

func newDownCmd(run providerFunc) *cobra.Command {
	to := int64(-1)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, p *goose.Provider) error {
				if to >= 0 {
					results, err := p.DownTo(ctx, to)
					printResults(cmd, results)
					if err != nil {
						return fmt.Errorf("migrate down to %d: %w", to, err)
					}
					return nil
				}
				result, err := p.Down(ctx)
				if result != nil {
					printResults(cmd, []*goose.MigrationResult{result})
				}
				if err != nil {
					return fmt.Errorf("migrate down: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&to, "to", -1, "roll back every migration newer than this version")
	return cmd
}

func newStatusCmd(run providerFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, p *goose.Provider) error {
				statuses, err := p.Status(ctx)
				if err != nil {
					return fmt.Errorf("migrate status: %w", err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, s := range statuses {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return tw.Flush()
			})
		},
	}
}

func printResults(cmd *cobra.Command, results []*goose.MigrationResult) {
	for _, r := range results {
		cmd.Printf("%-4s %s (%s)\n", r.Direction, r.Source.Path, r.Duration.Round(time.Millisecond))
	}
}
