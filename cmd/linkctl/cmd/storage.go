package cmd

import (
	"github.com/spf13/cobra"
)

func StorageCmd() *cobra.Command {
	storage := &cobra.Command{
		Use:   "storage",
		Short: "Reconcile an owner's stored objects against their records",
	}

	scan := &cobra.Command{
		Use:   "scan",
		Short: "List the owner's objects and flag orphans",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ownerScope(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := a.StorageService.Scan(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	addOwnerFlag(scan)

	var dryRun bool
	clean := &cobra.Command{
		Use:   "clean [key...]",
		Short: "Delete the given keys, or every current orphan when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ownerScope(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var keys []string
			if len(args) > 0 {
				keys = args
			}
			res, err := a.StorageService.Cleanup(cmd.Context(), scope, keys, dryRun)
			if res != nil {
				if printErr := printJSON(cmd.OutOrStdout(), res); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}
	addOwnerFlag(clean)
	clean.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")

	storage.AddCommand(scan, clean)
	return storage
}
