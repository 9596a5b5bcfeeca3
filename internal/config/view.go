package config

import (
	"fmt"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

// ViewConfig holds the presentation settings for Target View rendering
type ViewConfig struct {
	// BoxesPerRow is how many item boxes fit side by side in one column
	// Default: 3, Range: 1-12
	BoxesPerRow int

	// BoxWidth is the width of an item box in pixels
	// Default: 150, Range: 60-600
	BoxWidth int

	// BoxHeight is the height of an item box in pixels
	// Default: 48, Range: 24-300
	BoxHeight int

	// MinRowHeight is the smallest height of a primary item row
	// Default: 64, Range: 0-1000
	MinRowHeight int

	// FontSize is the item name font size; it drives text wrapping
	// Default: 12, Range: 6-48
	FontSize int

	// MinorText selects the line under each item name
	// Options: "none", "lifecycle", "description"
	// Default: "none"
	MinorText layout.MinorText

	// ColumnView selects which state columns are drawn
	// Options: "both", "current", "target"
	// Default: "both"
	ColumnView layout.ColumnView

	// FilterMode governs secondary items outside every rollup group
	// Options: "only-related", "show-secondary"
	// Default: "only-related"
	FilterMode types.FilterMode

	// GroupByParent sections primary items by their parent
	// Default: false
	GroupByParent bool
}

// DefaultViewConfig returns the default view configuration
func DefaultViewConfig() ViewConfig {
	m := layout.DefaultMetrics()
	return ViewConfig{
		BoxesPerRow:   m.BoxesPerRow,
		BoxWidth:      m.BoxWidth,
		BoxHeight:     m.BoxHeight,
		MinRowHeight:  m.MinRowHeight,
		FontSize:      m.FontSize,
		MinorText:     layout.MinorNone,
		ColumnView:    layout.ViewBoth,
		FilterMode:    types.FilterOnlyRelated,
		GroupByParent: false,
	}
}

// Validate checks if the configuration has valid values
func (c ViewConfig) Validate() error {
	if c.BoxesPerRow < 1 || c.BoxesPerRow > 12 {
		return fmt.Errorf("boxes_per_row must be between 1 and 12 (got %d)", c.BoxesPerRow)
	}
	if c.BoxWidth < 60 || c.BoxWidth > 600 {
		return fmt.Errorf("box_width must be between 60 and 600 (got %d)", c.BoxWidth)
	}
	if c.BoxHeight < 24 || c.BoxHeight > 300 {
		return fmt.Errorf("box_height must be between 24 and 300 (got %d)", c.BoxHeight)
	}
	if c.MinRowHeight < 0 || c.MinRowHeight > 1000 {
		return fmt.Errorf("min_row_height must be between 0 and 1000 (got %d)", c.MinRowHeight)
	}
	if c.FontSize < 6 || c.FontSize > 48 {
		return fmt.Errorf("font_size must be between 6 and 48 (got %d)", c.FontSize)
	}
	if !c.MinorText.IsValid() {
		return fmt.Errorf("minor_text must be 'none', 'lifecycle' or 'description' (got %q)", c.MinorText)
	}
	if !c.ColumnView.IsValid() {
		return fmt.Errorf("column_view must be 'both', 'current' or 'target' (got %q)", c.ColumnView)
	}
	if !c.FilterMode.IsValid() {
		return fmt.Errorf("filter_mode must be 'only-related' or 'show-secondary' (got %q)", c.FilterMode)
	}
	if err := c.Metrics().Validate(); err != nil {
		return fmt.Errorf("inconsistent metrics: %w", err)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c ViewConfig) String() string {
	return fmt.Sprintf(
		"ViewConfig{BoxesPerRow: %d, BoxWidth: %d, BoxHeight: %d, MinRowHeight: %d, "+
			"FontSize: %d, MinorText: %s, ColumnView: %s, FilterMode: %s, GroupByParent: %t}",
		c.BoxesPerRow, c.BoxWidth, c.BoxHeight, c.MinRowHeight,
		c.FontSize, c.MinorText, c.ColumnView, c.FilterMode, c.GroupByParent,
	)
}

// Metrics returns the layout metrics with the configured overrides applied
func (c ViewConfig) Metrics() layout.Metrics {
	m := layout.DefaultMetrics()
	m.BoxesPerRow = c.BoxesPerRow
	m.BoxWidth = c.BoxWidth
	m.BoxHeight = c.BoxHeight
	m.MinRowHeight = c.MinRowHeight
	m.FontSize = c.FontSize
	if m.MinorFontSize > m.FontSize {
		m.MinorFontSize = m.FontSize
	}
	if m.LineHeight < m.FontSize+2 {
		m.LineHeight = m.FontSize + 2
	}
	return m
}

// DisplayOptions returns the projector options for the configured view
func (c ViewConfig) DisplayOptions(mode types.RollupMode) layout.DisplayOptions {
	return layout.DisplayOptions{
		MinorText:     c.MinorText,
		ColumnView:    c.ColumnView,
		RollupMode:    mode,
		GroupByParent: c.GroupByParent,
	}
}

// ViewConfigFromEnv creates a ViewConfig from environment variables,
// falling back to defaults
//
// Environment variables:
//   - TV_BOXES_PER_ROW: Item boxes per column row (default: 3)
//   - TV_BOX_WIDTH: Item box width in pixels (default: 150)
//   - TV_BOX_HEIGHT: Item box height in pixels (default: 48)
//   - TV_MIN_ROW_HEIGHT: Minimum primary row height (default: 64)
//   - TV_FONT_SIZE: Item name font size (default: 12)
//   - TV_MINOR_TEXT: none, lifecycle or description (default: none)
//   - TV_COLUMN_VIEW: both, current or target (default: both)
//   - TV_FILTER_MODE: only-related or show-secondary (default: only-related)
//   - TV_GROUP_BY_PARENT: Section primary items by parent (default: false)
//
// Returns an error if any environment variable has an invalid value.
func ViewConfigFromEnv() (ViewConfig, error) {
	cfg := DefaultViewConfig()
	if err := applyViewEnv(&cfg); err != nil {
		return cfg, err
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid view configuration from environment: %w", err)
	}
	return cfg, nil
}

// applyViewEnv overlays environment variables onto cfg
func applyViewEnv(cfg *ViewConfig) error {
	if err := parseEnvInt("TV_BOXES_PER_ROW", &cfg.BoxesPerRow); err != nil {
		return err
	}
	if err := parseEnvInt("TV_BOX_WIDTH", &cfg.BoxWidth); err != nil {
		return err
	}
	if err := parseEnvInt("TV_BOX_HEIGHT", &cfg.BoxHeight); err != nil {
		return err
	}
	if err := parseEnvInt("TV_MIN_ROW_HEIGHT", &cfg.MinRowHeight); err != nil {
		return err
	}
	if err := parseEnvInt("TV_FONT_SIZE", &cfg.FontSize); err != nil {
		return err
	}

	minor := string(cfg.MinorText)
	if err := parseEnvString("TV_MINOR_TEXT", &minor); err != nil {
		return err
	}
	cfg.MinorText = layout.MinorText(minor)

	columns := string(cfg.ColumnView)
	if err := parseEnvString("TV_COLUMN_VIEW", &columns); err != nil {
		return err
	}
	cfg.ColumnView = layout.ColumnView(columns)

	filter := string(cfg.FilterMode)
	if err := parseEnvString("TV_FILTER_MODE", &filter); err != nil {
		return err
	}
	cfg.FilterMode = types.FilterMode(filter)

	if err := parseEnvBool("TV_GROUP_BY_PARENT", &cfg.GroupByParent); err != nil {
		return err
	}
	return nil
}
