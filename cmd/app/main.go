// Command gebo manages a vault of Markdown notes and the links between
// them.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/starford/gebo/internal"
	"github.com/starford/gebo/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "gebo",
		Usage: "Markdown notes with a queryable link graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to config file",
				DefaultText: internal.DefaultConfigFile,
				Sources:     cli.EnvVars("GEBO_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory, overrides the configured path",
				Sources: cli.EnvVars("GEBO_VAULT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			noteCommand(),
			linkCommand(),
			networkCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// commandEnv opens the vault for one CLI invocation using the global
// flags, which urfave/cli resolves through the command lineage.
func commandEnv(cmd *cli.Command) (*internal.CommandEnv, error) {
	return internal.NewCommandEnv(cmd.String("config"), cmd.String("vault"), cmd.Bool("verbose"))
}

// identityArg parses a positional note argument, qualifying it with
// category when the argument itself does not name one. An argument that
// already carries a category wins over the flag.
func identityArg(raw, category string) models.Identity {
	id := models.ParseIdentity(raw)
	if !id.Qualified() && category != "" {
		id.Category = category
	}
	return id
}
