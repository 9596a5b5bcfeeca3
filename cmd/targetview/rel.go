package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/types"
)

var relCmd = &cobra.Command{
	Use:   "rel",
	Short: "Manage relationships between items",
}

var relAddCmd = &cobra.Command{
	Use:   "add <item> <item>",
	Short: "Relate two items",
	Long: `Relate two items. The status marks the transition the relationship is
part of: "add" (Planned to add), "remove" (Planned to remove) or "existing".
Without --status the relationship has no status and counts as Existing.

Example:
  targetview rel add applications/Ledger platforms/Cloud --status add`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		statusStr, _ := cmd.Flags().GetString("status")
		status, err := types.ParseRelationshipStatus(statusStr)
		if err != nil {
			fail(err)
		}
		from, err := resolveItem(ctx, args[0])
		if err != nil {
			fail(err)
		}
		to, err := resolveItem(ctx, args[1])
		if err != nil {
			fail(err)
		}
		rel := &types.Relationship{FromItemID: from.ID, ToItemID: to.ID, LifecycleStatus: status}
		if err := store.CreateRelationship(ctx, rel); err != nil {
			fail(err)
		}
		fmt.Printf("%s Related %s/%s and %s/%s %s\n", green("✓"),
			from.Lens, from.Name, to.Lens, to.Name, gray(rel.ID))
	},
}

var relListCmd = &cobra.Command{
	Use:   "list [item]",
	Short: "List relationships, optionally those of one item",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		itemID := ""
		if len(args) == 1 {
			item, err := resolveItem(ctx, args[0])
			if err != nil {
				fail(err)
			}
			itemID = item.ID
		}
		if err := listRelationships(ctx, os.Stdout, itemID); err != nil {
			fail(err)
		}
	},
}

var relRmCmd = &cobra.Command{
	Use:   "rm <relationship-id>",
	Short: "Remove a relationship",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.DeleteRelationship(context.Background(), args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("%s Removed relationship %s\n", green("✓"), args[0])
	},
}

var relStatusCmd = &cobra.Command{
	Use:   "status <relationship-id> <add|remove|existing|none>",
	Short: "Set the transition status of a relationship",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		value := args[1]
		if value == "none" {
			value = ""
		}
		status, err := types.ParseRelationshipStatus(value)
		if err != nil {
			fail(err)
		}
		if err := store.UpdateRelationshipStatus(context.Background(), args[0], status); err != nil {
			fail(err)
		}
		fmt.Printf("%s Relationship %s is now %s\n", green("✓"), args[0], cyan(status.Effective()))
	},
}

// listRelationships prints relationships by endpoint name. An empty itemID
// lists all of them.
func listRelationships(ctx context.Context, w io.Writer, itemID string) error {
	snap, err := loadSnapshot(ctx)
	if err != nil {
		return err
	}
	byID := snap.ItemsByID()
	name := func(id string) string {
		if it, ok := byID[id]; ok {
			return string(it.Lens) + "/" + it.Name
		}
		return id
	}

	shown := 0
	for _, r := range snap.Relationships {
		if itemID != "" && r.FromItemID != itemID && r.ToItemID != itemID {
			continue
		}
		status := string(r.LifecycleStatus)
		if status == "" {
			status = gray("(none)")
		}
		fmt.Fprintf(w, "%-36s %s <-> %s  %s\n", r.ID, name(r.FromItemID), name(r.ToItemID), status)
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(w, "%s\n", gray("No relationships"))
	}
	return nil
}

func init() {
	relAddCmd.Flags().String("status", "", "Transition status: add, remove or existing")
	relCmd.AddCommand(relAddCmd, relListCmd, relRmCmd, relStatusCmd)
	rootCmd.AddCommand(relCmd)
}
