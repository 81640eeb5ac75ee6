package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/linkstash/internal/app"
	"github.com/templui/linkstash/internal/db"
	"github.com/templui/linkstash/internal/sqlclient"
)

func MigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations on the configured store",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			store, err := app.OpenStore(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if local, ok := store.Executor().(*sqlclient.Local); ok {
				return db.RunMigrations(local.DB().DB, cfg.StoreDriver)
			}
			n, err := db.MigrateRemote(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			store, err := app.OpenStore(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if local, ok := store.Executor().(*sqlclient.Local); ok {
				return db.MigrateDown(local.DB().DB, cfg.StoreDriver)
			}
			return db.MigrateRemoteDown(cmd.Context(), store)
		},
	})

	return migrate
}
