package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/types"
	"github.com/archlens/targetview/internal/view"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <primary-lens> <secondary-lens>",
	Short: "Print the Current/Target split without layout",
	Long: `Print the Current/Target classification of the secondary items related
to each primary item. Items that appear in only one state are marked
with + (target only) or - (current only).`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		itemRef, _ := cmd.Flags().GetString("item")
		asJSON, _ := cmd.Flags().GetBool("json")

		snap, err := loadSnapshot(ctx)
		if err != nil {
			fail(err)
		}
		filterID := ""
		if itemRef != "" {
			item, err := resolveItem(ctx, itemRef)
			if err != nil {
				fail(err)
			}
			filterID = item.ID
		}

		v := view.New(snap)
		if n := v.DroppedRelationships(); n > 0 {
			fmt.Fprintf(os.Stderr, "%s %d relationship(s) reference unknown items\n", yellow("Warning:"), n)
		}
		results := v.Classify(types.LensKey(args[0]), types.LensKey(args[1]), filterID)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				fail(fmt.Errorf("failed to encode results: %w", err))
			}
			return
		}
		printClassification(os.Stdout, results)
	},
}

func printClassification(w io.Writer, results []types.ClassificationResult) {
	if len(results) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No primary items"))
		return
	}
	for _, r := range results {
		current := make(map[string]bool, len(r.CurrentItems))
		for _, it := range r.CurrentItems {
			current[it.ID] = true
		}
		target := make(map[string]bool, len(r.TargetItems))
		for _, it := range r.TargetItems {
			target[it.ID] = true
		}

		fmt.Fprintf(w, "%s %s %s\n", cyan("●"), bold(r.PrimaryItem.Name), gray(r.PrimaryItem.LifecycleStatus.Label()))
		fmt.Fprintf(w, "  %s", gray("Current:"))
		for _, it := range r.CurrentItems {
			if target[it.ID] {
				fmt.Fprintf(w, " %s", it.Name)
			} else {
				fmt.Fprintf(w, " %s", red("-"+it.Name))
			}
		}
		fmt.Fprintf(w, "\n  %s", gray("Target: "))
		for _, it := range r.TargetItems {
			if current[it.ID] {
				fmt.Fprintf(w, " %s", it.Name)
			} else {
				fmt.Fprintf(w, " %s", green("+"+it.Name))
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	classifyCmd.Flags().String("item", "", "Only primary items related to this item (ID or lens/name)")
	classifyCmd.Flags().Bool("json", false, "Print results as JSON")
	rootCmd.AddCommand(classifyCmd)
}
