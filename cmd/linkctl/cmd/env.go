package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/templui/linkstash/internal/app"
	"github.com/templui/linkstash/internal/config"
	"github.com/templui/linkstash/internal/logger"
	"github.com/templui/linkstash/internal/repository"
)

// load reads configuration and sets up logging the way the server does.
func load() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	return cfg
}

// openApp builds the full application for commands that touch storage.
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), load())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}
	return a, nil
}

func ownerScope(cmd *cobra.Command) (repository.Scope, error) {
	owner, err := cmd.Flags().GetString("owner")
	if err != nil {
		return repository.Scope{}, err
	}
	return repository.NewScope(owner)
}

func addOwnerFlag(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "owner id whose data the command acts on")
	_ = cmd.MarkFlagRequired("owner")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
