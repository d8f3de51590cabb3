package main

import (
	"context"
	"fmt"

	"github.com/starford/gebo/internal"
	"github.com/starford/gebo/internal/mcpserver"
	pkgconfig "github.com/starford/gebo/pkg/config"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API with live vault updates",
		Action: serve,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Run the MCP server on stdio",
		Action: mcpServe,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpServe(_ context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	db, err := env.OpenIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(env.Store, env.Links, db).ServeStdio()
}

// loadServeConfig resolves the serve-mode configuration: the --config
// file when given, gebo.yaml when present, built-in defaults otherwise.
// The --vault flag overrides the configured vault path either way.
func loadServeConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadIfPresent(internal.DefaultConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if vault := cmd.String("vault"); vault != "" {
		cfg.Vault.Path = vault
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
