package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/archlens/targetview/internal/config"
	"github.com/archlens/targetview/internal/export"
	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/storage"
	"github.com/archlens/targetview/internal/types"
	"github.com/archlens/targetview/internal/view"
)

// viewFlags are the command-line overrides of the view selection
type viewFlags struct {
	rollup        string
	rollupLens    string
	filter        string
	item          string
	columns       string
	minor         string
	groupByParent bool
	svgPath       string
	jsonPath      string
	save          bool
}

var vf viewFlags

var viewCmd = &cobra.Command{
	Use:   "view [primary-lens] [secondary-lens]",
	Short: "Render the Target View of a primary and a secondary lens",
	Long: `Render the Target View: one row per primary item, with the related
secondary items split into Current and Target columns.

Selections come from, in increasing precedence: .targetview/view.yaml,
TV_* environment variables, saved preferences ('targetview prefs') and flags.

Examples:
  targetview view applications platforms
  targetview view applications platforms --rollup attribute
  targetview view applications platforms --rollup relation --rollup-lens capabilities --filter show-secondary
  targetview view --item applications/Ledger --svg ledger.svg`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		snap, err := loadSnapshot(ctx)
		if err != nil {
			fail(err)
		}
		q, err := buildQuery(ctx, args, vf, snap)
		if err != nil {
			fail(err)
		}

		engine := view.NewEngine(nil)
		res, err := engine.Recompute(ctx, snap, q)
		if err != nil {
			fail(err)
		}

		if vf.save {
			if err := saveSelection(ctx, q); err != nil {
				fail(err)
			}
		}

		wrote := false
		if vf.svgPath != "" {
			if err := writeFile(vf.svgPath, func(w io.Writer) error {
				return export.WriteSVG(w, res.Geometry, export.DefaultTheme())
			}); err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stderr, "%s Wrote %s\n", green("✓"), vf.svgPath)
			wrote = true
		}
		if vf.jsonPath != "" {
			if err := writeFile(vf.jsonPath, func(w io.Writer) error {
				return export.WriteJSON(w, res.Geometry)
			}); err != nil {
				fail(err)
			}
			fmt.Fprintf(os.Stderr, "%s Wrote %s\n", green("✓"), vf.jsonPath)
			wrote = true
		}
		if !wrote {
			renderText(os.Stdout, res.Geometry)
		}
	},
}

// projectRoot is the directory holding .targetview for the open database,
// falling back to the working directory
func projectRoot() string {
	if dbPath != "" || os.Getenv("TV_DB_PATH") != "" {
		path := dbPath
		if path == "" {
			path = os.Getenv("TV_DB_PATH")
		}
		if root, err := storage.GetProjectRoot(path); err == nil {
			// view.yaml is read from the database's project, not the working directory
			cwd, _ := os.Getwd()
			if err := storage.ValidateAlignment(path, cwd); err != nil {
				fmt.Fprintf(os.Stderr, "%s using %s from %s\n", yellow("Warning:"), config.ViewFileName, root)
			}
			return root
		}
	} else if discovered, err := storage.DiscoverDatabase(); err == nil {
		if root, err := storage.GetProjectRoot(discovered); err == nil {
			return root
		}
	}
	cwd, _ := os.Getwd()
	return cwd
}

// buildQuery layers view.yaml, environment, saved preferences, arguments
// and flags into one query
func buildQuery(ctx context.Context, args []string, flags viewFlags, snap types.Snapshot) (view.Query, error) {
	cfg, file, err := config.LoadViewConfig(projectRoot())
	if err != nil {
		return view.Query{}, err
	}
	sel := file.Selection()

	prefs, err := loadPrefs(ctx)
	if err != nil {
		return view.Query{}, err
	}
	applyPrefs(prefs, &sel, &cfg)

	if len(args) > 0 {
		sel.PrimaryLens = types.LensKey(args[0])
	}
	if len(args) > 1 {
		sel.SecondaryLens = types.LensKey(args[1])
	}
	if flags.rollup != "" {
		sel.RollupMode = types.RollupMode(flags.rollup)
		if flags.rollup == "none" {
			sel.RollupMode = types.RollupNone
		}
	}
	if flags.rollupLens != "" {
		sel.RollupLens = types.LensKey(flags.rollupLens)
	}
	if flags.filter != "" {
		cfg.FilterMode = types.FilterMode(flags.filter)
	}
	if flags.columns != "" {
		cfg.ColumnView = layout.ColumnView(flags.columns)
	}
	if flags.minor != "" {
		cfg.MinorText = layout.MinorText(flags.minor)
	}
	if flags.groupByParent {
		cfg.GroupByParent = true
	}
	if err := cfg.Validate(); err != nil {
		return view.Query{}, err
	}

	filterItemID := ""
	if flags.item != "" {
		item, err := resolveItem(ctx, flags.item)
		if err != nil {
			return view.Query{}, err
		}
		filterItemID = item.ID
		// With no primary lens chosen, the filter item's own lens is the primary
		if sel.PrimaryLens == "" {
			sel.PrimaryLens = item.Lens
		}
	}

	if sel.PrimaryLens == "" || sel.SecondaryLens == "" {
		return view.Query{}, fmt.Errorf("primary and secondary lens are required (pass them as arguments or set %s and %s)",
			prefPrimaryLens, prefSecondaryLens)
	}
	for _, key := range []types.LensKey{sel.PrimaryLens, sel.SecondaryLens} {
		if _, ok := snap.Lens(key); !ok {
			fmt.Fprintf(os.Stderr, "%s unknown lens %s; the view will be empty\n", yellow("Warning:"), key)
		}
	}

	rollup := types.RollupSpec{Mode: sel.RollupMode}
	if rollup.Mode != types.RollupNone {
		rollup.FilterMode = cfg.FilterMode
	}
	if rollup.Mode == types.RollupRelation {
		rollup.Lens = sel.RollupLens
	}

	return view.Query{
		PrimaryLens:   sel.PrimaryLens,
		SecondaryLens: sel.SecondaryLens,
		FilterItemID:  filterItemID,
		Rollup:        rollup,
		Display:       cfg.DisplayOptions(rollup.Mode),
		Metrics:       cfg.Metrics(),
	}, nil
}

// applyPrefs overlays saved preferences onto the file selection and config
func applyPrefs(prefs map[string]string, sel *config.Selection, cfg *config.ViewConfig) {
	if v, ok := prefs[prefPrimaryLens]; ok {
		sel.PrimaryLens = types.LensKey(v)
	}
	if v, ok := prefs[prefSecondaryLens]; ok {
		sel.SecondaryLens = types.LensKey(v)
	}
	if v, ok := prefs[prefRollupMode]; ok {
		sel.RollupMode = types.RollupMode(v)
	}
	if v, ok := prefs[prefRollupLens]; ok {
		sel.RollupLens = types.LensKey(v)
	}
	if v, ok := prefs[prefFilterMode]; ok {
		cfg.FilterMode = types.FilterMode(v)
	}
	if v, ok := prefs[prefColumnView]; ok {
		cfg.ColumnView = layout.ColumnView(v)
	}
	if v, ok := prefs[prefMinorText]; ok {
		cfg.MinorText = layout.MinorText(v)
	}
}

// saveSelection persists the lens and rollup choices of q
func saveSelection(ctx context.Context, q view.Query) error {
	values := map[string]string{
		prefPrimaryLens:   string(q.PrimaryLens),
		prefSecondaryLens: string(q.SecondaryLens),
		prefRollupMode:    string(q.Rollup.Mode),
		prefRollupLens:    string(q.Rollup.Lens),
		prefColumnView:    string(q.Display.ColumnView),
		prefMinorText:     string(q.Display.MinorText),
	}
	if q.Rollup.FilterMode != "" {
		values[prefFilterMode] = string(q.Rollup.FilterMode)
	}
	for k, v := range values {
		if err := setPref(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// renderText prints the geometry as an indented outline
func renderText(w io.Writer, g *layout.Geometry) {
	if len(g.Sections) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No primary items"))
		return
	}
	for _, section := range g.Sections {
		if section.Header != nil {
			fmt.Fprintf(w, "\n%s\n", bold(section.Label))
		}
		for _, row := range section.Rows {
			fmt.Fprintf(w, "\n%s %s\n", cyan("●"), bold(row.Label))
			for _, band := range row.Bands {
				indent := "  "
				if band.Label != "" {
					fmt.Fprintf(w, "  %s\n", yellow(band.Label))
					indent = "    "
				}
				for _, column := range []layout.Column{layout.ColumnCurrent, layout.ColumnTarget} {
					names, shown := columnNames(band.Boxes, column, g.Options.ColumnView)
					if !shown {
						continue
					}
					title := "Current:"
					if column == layout.ColumnTarget {
						title = "Target: "
					}
					fmt.Fprintf(w, "%s%s %s\n", indent, gray(title), names)
				}
			}
			if row.HiddenCount > 0 {
				fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("+%d hidden items", row.HiddenCount)))
			}
		}
	}
}

// columnNames joins the box names of one column, marking changes
func columnNames(boxes []layout.Box, column layout.Column, cv layout.ColumnView) (string, bool) {
	if (column == layout.ColumnCurrent && !cv.ShowsCurrent()) || (column == layout.ColumnTarget && !cv.ShowsTarget()) {
		return "", false
	}
	var names []string
	for _, b := range boxes {
		if b.Column != column {
			continue
		}
		switch b.Change {
		case layout.ChangeAdded:
			names = append(names, green("+"+b.Name))
		case layout.ChangeRemoved:
			names = append(names, red("-"+b.Name))
		default:
			names = append(names, b.Name)
		}
	}
	if len(names) == 0 {
		return gray("—"), true
	}
	return strings.Join(names, ", "), true
}

func init() {
	viewCmd.Flags().StringVar(&vf.rollup, "rollup", "", "Rollup mode: attribute, relation or none")
	viewCmd.Flags().StringVar(&vf.rollupLens, "rollup-lens", "", "Third lens for relation rollup")
	viewCmd.Flags().StringVar(&vf.filter, "filter", "", "Rollup filter: only-related or show-secondary")
	viewCmd.Flags().StringVar(&vf.item, "item", "", "Restrict to one item (ID or lens/name)")
	viewCmd.Flags().StringVar(&vf.columns, "columns", "", "Columns: both, current or target")
	viewCmd.Flags().StringVar(&vf.minor, "minor", "", "Minor text: none, lifecycle or description")
	viewCmd.Flags().BoolVar(&vf.groupByParent, "group-by-parent", false, "Section primary items by parent")
	viewCmd.Flags().StringVar(&vf.svgPath, "svg", "", "Write the view as SVG to this file")
	viewCmd.Flags().StringVar(&vf.jsonPath, "json", "", "Write the view geometry as JSON to this file")
	viewCmd.Flags().BoolVar(&vf.save, "save", false, "Save the selection as preferences")
	rootCmd.AddCommand(viewCmd)
}
