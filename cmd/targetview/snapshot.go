package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/storage"
	"github.com/archlens/targetview/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import lenses, items and relationships from a snapshot file",
	Long: `Import a YAML snapshot as written by 'targetview export'. Existing lenses
and items (same lens and name) are reused. Version 0 snapshots carry
relationship statuses in the item vocabulary and are migrated on import.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			fail(fmt.Errorf("failed to open snapshot: %w", err))
		}
		defer f.Close()

		stats, err := importSnapshot(context.Background(), f)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s Imported %d lenses, %d items, %d relationships", green("✓"),
			stats.Lenses, stats.Items, stats.Relationships)
		if stats.Skipped > 0 {
			fmt.Printf(" %s", yellow(fmt.Sprintf("(%d skipped)", stats.Skipped)))
		}
		fmt.Println()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole store as a YAML snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("output")
		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				fail(fmt.Errorf("failed to create %s: %w", out, err))
			}
			defer f.Close()
			w = f
		}
		if err := exportSnapshot(context.Background(), w); err != nil {
			fail(err)
		}
	},
}

func importSnapshot(ctx context.Context, r io.Reader) (storage.ImportStats, error) {
	snap, err := storage.ReadSnapshotFile(r)
	if err != nil {
		return storage.ImportStats{}, err
	}
	return storage.ImportSnapshot(ctx, store, snap)
}

func exportSnapshot(ctx context.Context, w io.Writer) error {
	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	return storage.WriteSnapshotFile(w, snap)
}

// loadSnapshot reads the whole store
func loadSnapshot(ctx context.Context) (types.Snapshot, error) {
	snap, err := storage.LoadSnapshot(ctx, store)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(importCmd, exportCmd)
}
