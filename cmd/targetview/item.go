package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/types"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage items",
	Long: `Manage items. Items are referenced either by ID or as <lens>/<name>,
for example applications/Ledger.`,
}

var itemAddCmd = &cobra.Command{
	Use:   "add <lens> <name>",
	Short: "Add an item to a lens",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		statusStr, _ := cmd.Flags().GetString("status")
		status, err := types.ParseLifecycleStatus(statusStr)
		if err != nil {
			fail(err)
		}
		item := &types.Item{
			Lens:            types.LensKey(args[0]),
			Name:            args[1],
			LifecycleStatus: status,
		}
		item.Parent, _ = cmd.Flags().GetString("parent")
		item.Description, _ = cmd.Flags().GetString("description")
		item.BusinessContact, _ = cmd.Flags().GetString("business-contact")
		item.TechnicalContact, _ = cmd.Flags().GetString("technical-contact")

		if err := store.CreateItem(context.Background(), item); err != nil {
			fail(err)
		}
		fmt.Printf("%s Added %s/%s %s\n", green("✓"), item.Lens, item.Name, gray(item.ID))
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	Run: func(cmd *cobra.Command, args []string) {
		var filter types.ItemFilter
		if lens, _ := cmd.Flags().GetString("lens"); lens != "" {
			key := types.LensKey(lens)
			filter.Lens = &key
		}
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			status, err := types.ParseLifecycleStatus(statusStr)
			if err != nil {
				fail(err)
			}
			filter.Status = &status
		}
		if cmd.Flags().Changed("parent") {
			parent, _ := cmd.Flags().GetString("parent")
			filter.Parent = &parent
		}
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		if err := listItems(context.Background(), os.Stdout, filter); err != nil {
			fail(err)
		}
	},
}

var itemRmCmd = &cobra.Command{
	Use:   "rm <item>",
	Short: "Remove an item and its relationships",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		item, err := resolveItem(ctx, args[0])
		if err != nil {
			fail(err)
		}
		if err := store.DeleteItem(ctx, item.ID); err != nil {
			fail(err)
		}
		fmt.Printf("%s Removed %s/%s\n", green("✓"), item.Lens, item.Name)
	},
}

var itemSetCmd = &cobra.Command{
	Use:   "set <item> <field>=<value>...",
	Short: "Update item fields",
	Long: `Update item fields. Fields: name, lifecycle_status (or status), parent,
description, business_contact, technical_contact.

Example:
  targetview item set applications/Ledger status=Divest parent="Core Banking"`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		item, err := resolveItem(ctx, args[0])
		if err != nil {
			fail(err)
		}
		updates, err := parseAssignments(args[1:])
		if err != nil {
			fail(err)
		}
		if err := store.UpdateItem(ctx, item.ID, updates); err != nil {
			fail(err)
		}
		fmt.Printf("%s Updated %s/%s\n", green("✓"), item.Lens, item.Name)
	},
}

// parseAssignments turns field=value arguments into an UpdateItem map
func parseAssignments(args []string) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		field = strings.ReplaceAll(strings.TrimSpace(field), "-", "_")
		if field == "status" {
			field = "lifecycle_status"
		}
		if field == "lifecycle_status" {
			status, err := types.ParseLifecycleStatus(value)
			if err != nil {
				return nil, err
			}
			updates[field] = string(status)
			continue
		}
		updates[field] = value
	}
	return updates, nil
}

// resolveItem finds an item by ID or by <lens>/<name>
func resolveItem(ctx context.Context, ref string) (*types.Item, error) {
	item, err := store.GetItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	if lens, name, ok := strings.Cut(ref, "/"); ok {
		item, err = store.FindItem(ctx, types.LensKey(lens), name)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", ref, types.ErrNotFound)
}

func listItems(ctx context.Context, w io.Writer, filter types.ItemFilter) error {
	items, err := store.ListItems(ctx, filter)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No items"))
		return nil
	}
	for _, it := range items {
		parent := ""
		if it.Parent != "" {
			parent = gray(" [" + it.Parent + "]")
		}
		fmt.Fprintf(w, "%-16s %-36s %-10s %s%s\n",
			it.Lens, it.ID, it.LifecycleStatus.Label(), it.Name, parent)
	}
	return nil
}

func init() {
	itemAddCmd.Flags().String("status", "", "Lifecycle status: Plan, Emerging, Invest, Divest, Stable")
	itemAddCmd.Flags().String("parent", "", "Parent grouping label")
	itemAddCmd.Flags().String("description", "", "Description")
	itemAddCmd.Flags().String("business-contact", "", "Business contact")
	itemAddCmd.Flags().String("technical-contact", "", "Technical contact")

	itemListCmd.Flags().String("lens", "", "Only items of this lens")
	itemListCmd.Flags().String("status", "", "Only items with this lifecycle status")
	itemListCmd.Flags().String("parent", "", "Only items with this parent")
	itemListCmd.Flags().Int("limit", 0, "Maximum number of items")

	itemCmd.AddCommand(itemAddCmd, itemListCmd, itemRmCmd, itemSetCmd)
	rootCmd.AddCommand(itemCmd)
}
