package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/linkstash/internal/app"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/slug"
)

func SlugCmd() *cobra.Command {
	slugCmd := &cobra.Command{
		Use:   "slug",
		Short: "Inspect the short link namespace",
	}

	var (
		count  int
		length int
	)
	gen := &cobra.Command{
		Use:   "gen",
		Short: "Allocate free slugs without creating links",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(load(), false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			allocator := slug.NewAllocator(repository.NewGlobal(store), slug.WithLength(length))
			for range count {
				s, err := allocator.Generate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	gen.Flags().IntVarP(&count, "count", "n", 1, "how many slugs to print")
	gen.Flags().IntVar(&length, "length", slug.DefaultLength, "slug length")

	check := &cobra.Command{
		Use:   "check <slug>",
		Short: "Validate a custom slug and report whether it is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.OpenStore(load(), false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			s, err := slug.NewAllocator(repository.NewGlobal(store)).Custom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is available\n", s)
			return nil
		},
	}

	slugCmd.AddCommand(gen, check)
	return slugCmd
}
