package layout

import (
	"fmt"

	"github.com/archlens/targetview/internal/types"
)

// MinorText selects the secondary line rendered under each item name
type MinorText string

const (
	MinorNone        MinorText = "none"
	MinorLifecycle   MinorText = "lifecycle"
	MinorDescription MinorText = "description"
)

// IsValid checks if the minor text option is valid
func (m MinorText) IsValid() bool {
	switch m {
	case MinorNone, MinorLifecycle, MinorDescription:
		return true
	}
	return false
}

// ColumnView selects which of the Current and Target columns consume space
type ColumnView string

const (
	ViewBoth    ColumnView = "both"
	ViewCurrent ColumnView = "current"
	ViewTarget  ColumnView = "target"
)

// IsValid checks if the column view value is valid
func (v ColumnView) IsValid() bool {
	switch v {
	case ViewBoth, ViewCurrent, ViewTarget:
		return true
	}
	return false
}

// ShowsCurrent reports whether the Current column is laid out
func (v ColumnView) ShowsCurrent() bool { return v != ViewTarget }

// ShowsTarget reports whether the Target column is laid out
func (v ColumnView) ShowsTarget() bool { return v != ViewCurrent }

// DisplayOptions controls what the projector draws
type DisplayOptions struct {
	MinorText  MinorText        `json:"minor_text" yaml:"minor_text"`
	ColumnView ColumnView       `json:"column_view" yaml:"column_view"`
	RollupMode types.RollupMode `json:"rollup_mode,omitempty" yaml:"rollup_mode,omitempty"`
	// GroupByParent sections the primary items by their own Parent field
	GroupByParent bool `json:"group_by_parent" yaml:"group_by_parent"`
	// Column titles; defaults are used when empty
	PrimaryTitle string `json:"primary_title,omitempty" yaml:"primary_title,omitempty"`
	RollupTitle  string `json:"rollup_title,omitempty" yaml:"rollup_title,omitempty"`
}

// DefaultDisplayOptions returns both columns, no minor text and no rollup
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		MinorText:  MinorNone,
		ColumnView: ViewBoth,
	}
}

// Validate checks the option values
func (o DisplayOptions) Validate() error {
	if !o.MinorText.IsValid() {
		return fmt.Errorf("minor_text must be none, lifecycle or description (got %q)", o.MinorText)
	}
	if !o.ColumnView.IsValid() {
		return fmt.Errorf("column_view must be both, current or target (got %q)", o.ColumnView)
	}
	if !o.RollupMode.IsValid() {
		return fmt.Errorf("invalid rollup mode: %s", o.RollupMode)
	}
	return nil
}

// normalized replaces unset or unknown values with defaults so that Project
// stays total
func (o DisplayOptions) normalized() DisplayOptions {
	if !o.MinorText.IsValid() {
		o.MinorText = MinorNone
	}
	if !o.ColumnView.IsValid() {
		o.ColumnView = ViewBoth
	}
	if !o.RollupMode.IsValid() {
		o.RollupMode = types.RollupNone
	}
	return o
}

// Metrics are the fixed pixel sizes the projector works with
type Metrics struct {
	BoxWidth            int `json:"box_width" yaml:"box_width"`
	BoxHeight           int `json:"box_height" yaml:"box_height"`
	BoxGap              int `json:"box_gap" yaml:"box_gap"`
	BoxesPerRow         int `json:"boxes_per_row" yaml:"boxes_per_row"`
	MinRowHeight        int `json:"min_row_height" yaml:"min_row_height"`
	RowGap              int `json:"row_gap" yaml:"row_gap"`
	ColumnGap           int `json:"column_gap" yaml:"column_gap"`
	PrimaryColumnWidth  int `json:"primary_column_width" yaml:"primary_column_width"`
	RollupColumnWidth   int `json:"rollup_column_width" yaml:"rollup_column_width"`
	SectionHeaderHeight int `json:"section_header_height" yaml:"section_header_height"`
	ColumnHeaderHeight  int `json:"column_header_height" yaml:"column_header_height"`
	Padding             int `json:"padding" yaml:"padding"`
	FontSize            int `json:"font_size" yaml:"font_size"`
	MinorFontSize       int `json:"minor_font_size" yaml:"minor_font_size"`
	LineHeight          int `json:"line_height" yaml:"line_height"`
	BoxPadding          int `json:"box_padding" yaml:"box_padding"`
}

// DefaultMetrics returns the metrics used by the interactive view
func DefaultMetrics() Metrics {
	return Metrics{
		BoxWidth:            150,
		BoxHeight:           48,
		BoxGap:              8,
		BoxesPerRow:         3,
		MinRowHeight:        64,
		RowGap:              12,
		ColumnGap:           32,
		PrimaryColumnWidth:  180,
		RollupColumnWidth:   150,
		SectionHeaderHeight: 28,
		ColumnHeaderHeight:  32,
		Padding:             20,
		FontSize:            12,
		MinorFontSize:       10,
		LineHeight:          14,
		BoxPadding:          6,
	}
}

// Validate checks if the metrics describe a drawable layout
func (m Metrics) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"box_width", m.BoxWidth},
		{"box_height", m.BoxHeight},
		{"boxes_per_row", m.BoxesPerRow},
		{"primary_column_width", m.PrimaryColumnWidth},
		{"rollup_column_width", m.RollupColumnWidth},
		{"font_size", m.FontSize},
		{"minor_font_size", m.MinorFontSize},
		{"line_height", m.LineHeight},
	}
	for _, p := range positive {
		if p.value < 1 {
			return fmt.Errorf("%s must be at least 1 (got %d)", p.name, p.value)
		}
	}

	nonNegative := []struct {
		name  string
		value int
	}{
		{"box_gap", m.BoxGap},
		{"min_row_height", m.MinRowHeight},
		{"row_gap", m.RowGap},
		{"column_gap", m.ColumnGap},
		{"section_header_height", m.SectionHeaderHeight},
		{"column_header_height", m.ColumnHeaderHeight},
		{"padding", m.Padding},
		{"box_padding", m.BoxPadding},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return fmt.Errorf("%s cannot be negative (got %d)", p.name, p.value)
		}
	}

	if m.BoxesPerRow > 20 {
		return fmt.Errorf("boxes_per_row too large (got %d, max 20)", m.BoxesPerRow)
	}
	if 2*m.BoxPadding >= m.BoxWidth {
		return fmt.Errorf("box_padding (%d) leaves no room for text in box_width (%d)", m.BoxPadding, m.BoxWidth)
	}
	return nil
}

// ColumnWidth is the width of one Current or Target column in two-column mode
func (m Metrics) ColumnWidth() int {
	return m.BoxesPerRow*m.BoxWidth + (m.BoxesPerRow-1)*m.BoxGap
}
