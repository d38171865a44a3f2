package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/landarea-core/internal/conversion"
	"github.com/nerrad567/landarea-core/internal/infrastructure/config"
	"github.com/nerrad567/landarea-core/internal/infrastructure/database"
	"github.com/nerrad567/landarea-core/internal/infrastructure/logging"
)

func convertCmd(opts *rootOptions) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "convert VALUE FROM TO",
		Short: "Convert a land area from one unit to another",
		Example: "  landarea convert 2.5 bigha acre --region banka_bihar\n" +
			"  landarea convert -- -3 acre sqft",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := conversion.ParseUnit(args[1])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := conversion.ParseUnit(args[2])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}
			r, err := conversion.ParseRegion(region)
			if err != nil {
				return fmt.Errorf("region: %w", err)
			}

			registry, cleanup, err := loadConverter(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			out := registry.Convert(conversion.Request{Input: args[0], From: from, To: to, Region: r})
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", string(conversion.RegionStandard),
		"regional convention (standard, banka_bihar)")
	return cmd
}

func unitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the supported units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME")
			for _, u := range conversion.Units() {
				fmt.Fprintf(tw, "%s\t%s\n", u, u.Label())
			}
			return tw.Flush()
		},
	}
}

func regionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the regional conventions and their factor tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := loadConverter(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			catalog := registry.Engine().Catalog()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "catalog: %s\n", registry.Source())

			for _, r := range conversion.Regions() {
				fmt.Fprintf(w, "\n%s (%s)\n", r.Label(), r)
				if note := r.Note(); note != "" {
					fmt.Fprintf(w, "  %s\n", note)
				}

				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "  UNIT\tSQUARE METERS")
				table := catalog.Table(r)
				for _, u := range conversion.Units() {
					fmt.Fprintf(tw, "  %s\t%g\n", u, table[u])
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func dbCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the SQLite database",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
					if err := db.Migrate(cmd.Context()); err != nil {
						return fmt.Errorf("running migrations: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
					if err := db.MigrateDown(cmd.Context()); err != nil {
						return fmt.Errorf("rolling back migration: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "last migration rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(db *database.DB) error {
					applied, pending, err := db.MigrationStatus(cmd.Context())
					if err != nil {
						return fmt.Errorf("reading migration status: %w", err)
					}

					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT")
					for _, m := range applied {
						fmt.Fprintf(tw, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
					}
					for _, m := range pending {
						fmt.Fprintf(tw, "%s\tpending\t-\n", m.Version)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

// loadConfig reads the config file. A missing file at the default location
// falls back to defaults so one-shot commands work without any setup.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	return nil, fmt.Errorf("loading config: %w", err)
}

// withDatabase opens the configured database without migrating it and
// closes it after fn returns.
func withDatabase(ctx context.Context, opts *rootOptions, fn func(db *database.DB) error) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close after a CLI command

	return fn(db)
}

// loadConverter returns a registry for one-shot commands. Without --use-db
// it serves the built-in tables and touches no files.
func loadConverter(ctx context.Context, opts *rootOptions, logOut io.Writer) (*conversion.Registry, func(), error) {
	if !opts.useDB {
		return conversion.NewRegistry(nil), func() {}, nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	// --use-db implies the database catalog whatever the file says.
	cfg.Catalog.UseDatabase = true

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	log := logging.NewWithWriter(cfg.Logging, version, logOut)
	registry, err := loadRegistry(ctx, cfg, db, log)
	if err != nil {
		db.Close() //nolint:errcheck // already returning the load error
		return nil, nil, err
	}

	cleanup := func() {
		if closeErr := db.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "closing database: %v\n", closeErr)
		}
	}
	return registry, cleanup, nil
}
