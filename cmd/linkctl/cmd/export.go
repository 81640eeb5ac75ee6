package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/templui/linkstash/internal/app"
	"github.com/templui/linkstash/internal/service"
)

func ExportCmd() *cobra.Command {
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write an owner's links, folders and tags as a JSON envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ownerScope(cmd)
			if err != nil {
				return err
			}
			store, err := app.OpenStore(load(), false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			env, err := service.NewBackupService(store).Export(cmd.Context(), scope)
			if err != nil {
				return err
			}

			if out == "" {
				return printJSON(cmd.OutOrStdout(), env)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer func() { _ = f.Close() }()
			return printJSON(f, env)
		},
	}
	addOwnerFlag(export)
	export.Flags().StringVarP(&out, "out", "o", "", "file to write instead of stdout")
	return export
}
