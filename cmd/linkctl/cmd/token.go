package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/templui/linkstash/internal/service"
)

func TokenCmd() *cobra.Command {
	var expiry time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := cmd.Flags().GetString("owner")
			if err != nil {
				return err
			}
			cfg := load()
			if expiry <= 0 {
				expiry = cfg.JWTExpiry
			}
			t, err := service.NewAuthService(cfg.JWTSecret, expiry).GenerateJWT(owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
	addOwnerFlag(token)
	token.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default JWT_EXPIRY)")
	return token
}
