package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/storage"
)

var (
	dbPath      string
	postgresURL string
	store       storage.Storage
)

// skipStore marks commands that run without an open store
const skipStore = "skip-store"

var rootCmd = &cobra.Command{
	Use:   "targetview",
	Short: "Current/Target architecture views over lenses, items and relationships",
	Long: `targetview keeps an architecture inventory (lenses, items and the
relationships between them) and renders Target Views: for each primary item,
the secondary items that belong to its current state and to its target state.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Annotations[skipStore] == "true" {
			return
		}

		cfg := storage.DefaultConfig()
		if postgresURL == "" {
			postgresURL = os.Getenv("TV_PG_URL")
		}
		if postgresURL != "" {
			cfg.Backend = storage.BackendPostgres
			cfg.PostgresURL = postgresURL
		} else {
			path := dbPath
			if path == "" {
				discovered, err := storage.DiscoverDatabase()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				path = discovered
			}
			cfg.Path = path
		}

		var err error
		store, err = storage.NewStorage(context.Background(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: discover .targetview/*.db)")
	rootCmd.PersistentFlags().StringVar(&postgresURL, "postgres", "", "PostgreSQL connection URL (default: $TV_PG_URL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// fail prints err in the CLI's error format and exits
func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
	os.Exit(1)
}
