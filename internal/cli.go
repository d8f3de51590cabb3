package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/notestore"
	"github.com/starford/gebo/pkg/config"
)

// DefaultConfigFile is picked up from the working directory when no
// --config flag is given.
const DefaultConfigFile = "gebo.yaml"

// CommandEnv bundles what a CLI command needs to work against the vault.
type CommandEnv struct {
	Config *Config
	Store  *notestore.FS
	Links  *linkgraph.Service
	Logger *slog.Logger
}

// NewCommandEnv loads configuration and opens the vault for one CLI
// command. configPath may be empty, in which case gebo.yaml is used when
// present and built-in defaults otherwise. vaultOverride, when non-empty,
// replaces the configured vault path. verbose lowers the log level from
// warn to debug.
func NewCommandEnv(configPath, vaultOverride string, verbose bool) (*CommandEnv, error) {
	cfg := NewDefaultConfig()
	if configPath != "" {
		if err := config.Load(configPath, cfg); err != nil {
			return nil, err
		}
	} else if _, err := config.LoadIfPresent(DefaultConfigFile, cfg); err != nil {
		return nil, err
	}
	if vaultOverride != "" {
		cfg.Vault.Path = vaultOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := notestore.NewFS(cfg.Vault.Path, cfg.Vault.Ignore...)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	return &CommandEnv{
		Config: cfg,
		Store:  store,
		Links:  linkgraph.NewService(store),
		Logger: logger,
	}, nil
}

// OpenIndex opens the configured search index, syncing it first so
// queries see the files currently on disk. The caller owns the handle.
func (e *CommandEnv) OpenIndex() (*index.DB, error) {
	db, err := index.Open(e.Config.SQLite.Path)
	if err != nil {
		return nil, err
	}
	if err := index.Sync(db, e.Store, e.Logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
