package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/types"
)

var lensCmd = &cobra.Command{
	Use:   "lens",
	Short: "Manage lenses (analytical dimensions such as applications or platforms)",
}

var lensAddCmd = &cobra.Command{
	Use:   "add <key> <label>",
	Short: "Add a lens",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		order, _ := cmd.Flags().GetInt("order")
		lens := &types.Lens{Key: types.LensKey(args[0]), Label: args[1], Order: order}
		if err := store.CreateLens(context.Background(), lens); err != nil {
			fail(err)
		}
		fmt.Printf("%s Added lens %s\n", green("✓"), cyan(lens.Key))
	},
}

var lensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lenses",
	Run: func(cmd *cobra.Command, args []string) {
		if err := listLenses(context.Background(), os.Stdout); err != nil {
			fail(err)
		}
	},
}

var lensRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Remove a lens with all its items and their relationships",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.DeleteLens(context.Background(), types.LensKey(args[0])); err != nil {
			fail(err)
		}
		fmt.Printf("%s Removed lens %s\n", green("✓"), cyan(args[0]))
	},
}

// listLenses prints each lens with its item count
func listLenses(ctx context.Context, w io.Writer) error {
	lenses, err := store.ListLenses(ctx)
	if err != nil {
		return err
	}
	if len(lenses) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No lenses"))
		return nil
	}
	for _, l := range lenses {
		key := l.Key
		items, err := store.ListItems(ctx, types.ItemFilter{Lens: &key})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-20s %-30s %d items\n", l.Key, l.DisplayLabel(), len(items))
	}
	return nil
}

func init() {
	lensAddCmd.Flags().Int("order", 0, "Display order")
	lensCmd.AddCommand(lensAddCmd, lensListCmd, lensRmCmd)
	rootCmd.AddCommand(lensCmd)
}
