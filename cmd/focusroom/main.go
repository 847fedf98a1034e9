package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"focusroom/internal/config"
	"focusroom/internal/logging"
	"focusroom/internal/persona"
)

var (
	// Global flags
	workspace    string
	registryPath string
	noRedis      bool
	verbose      bool

	// Logger for non-interactive subcommands
	logger *zap.Logger
)

// rootCmd starts the interactive focus group room.
var rootCmd = &cobra.Command{
	Use:   "focusroom",
	Short: "focusroom - terminal focus group simulation",
	Long: `focusroom runs a moderated focus group in your terminal.

LLM-role-played personas with fixed identities and dispositions discuss any
topic you give them. Direct questions at one persona, let them argue among
themselves with !observe, share ad images for them to react to, and walk away
with a Markdown summary of the session.

Run without arguments to open a room.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive room has its own terminal UI; zap is for the
		// scripted subcommands.
		if cmd.Name() == "focusroom" {
			return nil
		}
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoom()
	},
}

// seedCmd loads the persona JSON files into the document store.
var seedCmd = &cobra.Command{
	Use:   "seed [file...]",
	Short: "Seed the persona document store from JSON files",
	Long: `Seed upserts persona documents into the SQLite store.

With no arguments, every persona named in the registry is seeded from the
personas directory. With file arguments, only those files are seeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromWorkspace(workspace)
		if err != nil {
			return err
		}
		if err := logging.Initialize(workspace); err != nil {
			return err
		}
		defer logging.CloseAll()

		store, err := persona.NewSQLiteStore(resolvePath(cfg.Store.DatabasePath))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		if len(args) > 0 {
			for _, path := range args {
				if err := persona.SeedFile(ctx, store, path); err != nil {
					return err
				}
				logger.Info("seeded persona file", zap.String("file", path))
			}
			return nil
		}

		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		if err := persona.Seed(ctx, store, catalog, resolvePath(cfg.Store.PersonasDir)); err != nil {
			return err
		}
		logger.Info("seeded personas", zap.Int("count", len(catalog.Entries())))
		return nil
	},
}

// configCmd writes the default config file for editing.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the default config to .focusroom/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(workspace, ".focusroom", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		logger.Info("wrote default config", zap.String("path", path))
		return nil
	},
}

func loadCatalog(cfg *config.Config) (*persona.Catalog, error) {
	path := registryPath
	if path == "" {
		path = filepath.Join(resolvePath(cfg.Store.PersonasDir), "registry.yaml")
	}
	return persona.LoadCatalog(path)
}

// resolvePath anchors relative config paths at the workspace.
func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "persona registry YAML (default: <personas_dir>/registry.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noRedis, "no-redis", false, "keep session history in memory only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
