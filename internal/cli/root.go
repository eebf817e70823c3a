// Package cli provides the command-line interface for Talus Tally.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/config"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and store client
	cfg         config.Config
	storeClient *store.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Velocity scoring for hierarchical project plans",
	Long: `Talus Tally ranks the work in a project plan by velocity score.

Projects are trees of typed nodes; a blueprint defines the node types
and how each one is scored. Blocking relationships between nodes zero
out blocked work and boost the work that unblocks it, so the ranking
always points at what to do next.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storeClient != nil {
			if err := storeClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// connectStore lazily opens the SurrealDB connection. Only the project
// subcommands need it; everything else works on local files.
func connectStore(ctx context.Context) (*store.Client, error) {
	if storeClient != nil {
		return storeClient, nil
	}

	client, err := store.NewClient(ctx, store.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := client.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	storeClient = client
	return storeClient, nil
}

// resolveBlueprintPath lets blueprints be named bare: "restoration"
// resolves to <blueprint dir>/restoration.yaml when no such file exists
// relative to the working directory.
func resolveBlueprintPath(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if filepath.Ext(name) != "" {
		return name
	}
	return filepath.Join(cfg.BlueprintDir, name+".yaml")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(blockingCmd)
	rootCmd.AddCommand(projectCmd)
}
