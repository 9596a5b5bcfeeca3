package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

// View preferences persisted in the store's config table
const (
	prefPrimaryLens   = "view.primary_lens"
	prefSecondaryLens = "view.secondary_lens"
	prefRollupMode    = "view.rollup_mode"
	prefRollupLens    = "view.rollup_lens"
	prefFilterMode    = "view.filter_mode"
	prefColumnView    = "view.column_view"
	prefMinorText     = "view.minor_text"
)

// prefValidators checks a preference value before it is stored
var prefValidators = map[string]func(string) error{
	prefPrimaryLens:   func(string) error { return nil },
	prefSecondaryLens: func(string) error { return nil },
	prefRollupLens:    func(string) error { return nil },
	prefRollupMode: func(v string) error {
		if !types.RollupMode(v).IsValid() {
			return fmt.Errorf("rollup mode must be 'attribute', 'relation' or empty (got %q)", v)
		}
		return nil
	},
	prefFilterMode: func(v string) error {
		if v != "" && !types.FilterMode(v).IsValid() {
			return fmt.Errorf("filter mode must be 'only-related' or 'show-secondary' (got %q)", v)
		}
		return nil
	},
	prefColumnView: func(v string) error {
		if v != "" && !layout.ColumnView(v).IsValid() {
			return fmt.Errorf("column view must be 'both', 'current' or 'target' (got %q)", v)
		}
		return nil
	},
	prefMinorText: func(v string) error {
		if v != "" && !layout.MinorText(v).IsValid() {
			return fmt.Errorf("minor text must be 'none', 'lifecycle' or 'description' (got %q)", v)
		}
		return nil
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change saved view preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show saved preferences",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		if err := printPrefs(context.Background(), os.Stdout, key); err != nil {
			fail(err)
		}
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a preference (empty value clears it)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := setPref(context.Background(), args[0], args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("%s %s = %q\n", green("✓"), args[0], args[1])
	},
}

func setPref(ctx context.Context, key, value string) error {
	validate, ok := prefValidators[key]
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}
	if err := validate(value); err != nil {
		return err
	}
	return store.SetConfig(ctx, key, value)
}

func printPrefs(ctx context.Context, w io.Writer, only string) error {
	keys := make([]string, 0, len(prefValidators))
	for k := range prefValidators {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if only != "" {
		if _, ok := prefValidators[only]; !ok {
			return fmt.Errorf("unknown preference %q", only)
		}
		keys = []string{only}
	}
	for _, k := range keys {
		value, err := store.GetConfig(ctx, k)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", k, err)
		}
		if value == "" {
			value = gray("(unset)")
		}
		fmt.Fprintf(w, "%-22s %s\n", k, value)
	}
	return nil
}

// loadPrefs returns every non-empty saved preference
func loadPrefs(ctx context.Context) (map[string]string, error) {
	prefs := make(map[string]string, len(prefValidators))
	for k := range prefValidators {
		value, err := store.GetConfig(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		if value != "" {
			prefs[k] = value
		}
	}
	return prefs, nil
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
