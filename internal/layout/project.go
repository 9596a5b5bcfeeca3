// Package layout turns aggregated classification results into absolute
// geometry shared by the interactive renderer and the static exporters.
//
// Projection runs in two passes. The measure pass computes every band and row
// height bottom-up from item counts alone; the place pass then walks the tree
// top-down assigning coordinates. Text is wrapped with a fixed-width
// heuristic (see Wrap) rather than real font metrics so that every consumer
// of the geometry agrees on line breaks.
package layout

import (
	"fmt"
	"log"

	"github.com/archlens/targetview/internal/types"
)

// Default column titles
const (
	DefaultPrimaryTitle = "Item"
	DefaultRollupTitle  = "Group"
	CurrentTitle        = "Current"
	TargetTitle         = "Target"
)

// columns holds the fixed x offsets of every enabled column
type columns struct {
	primaryX, primaryW int
	rollupX, rollupW   int // zero width without a rollup
	currentX, currentW int // zero width when hidden
	targetX, targetW   int // zero width when hidden
	boxW               int
	width              int
}

func computeColumns(opts DisplayOptions, m Metrics) columns {
	var c columns
	x := m.Padding
	c.primaryX, c.primaryW = x, m.PrimaryColumnWidth
	x += m.PrimaryColumnWidth + m.ColumnGap

	if opts.RollupMode != types.RollupNone {
		c.rollupX, c.rollupW = x, m.RollupColumnWidth
		x += m.RollupColumnWidth + m.ColumnGap
	}

	colW := m.ColumnWidth()
	c.boxW = m.BoxWidth
	switch {
	case opts.ColumnView.ShowsCurrent() && opts.ColumnView.ShowsTarget():
		c.currentX, c.currentW = x, colW
		x += colW + m.ColumnGap
		c.targetX, c.targetW = x, colW
		x += colW
	default:
		// The hidden column's width and the gap fold into the visible one
		w := 2*colW + m.ColumnGap
		c.boxW = (w - (m.BoxesPerRow-1)*m.BoxGap) / m.BoxesPerRow
		if opts.ColumnView.ShowsCurrent() {
			c.currentX, c.currentW = x, w
		} else {
			c.targetX, c.targetW = x, w
		}
		x += w
	}

	c.width = x + m.Padding
	return c
}

// RowHeight returns the height needed for current and target item counts:
// max(BoxHeight*rows + BoxGap*(rows-1), MinRowHeight) where rows is derived
// from the larger count among the enabled columns.
func RowHeight(current, target int, view ColumnView, m Metrics) int {
	maxSide := 0
	if view.ShowsCurrent() && current > maxSide {
		maxSide = current
	}
	if view.ShowsTarget() && target > maxSide {
		maxSide = target
	}
	rows := boxRows(maxSide, m.BoxesPerRow)
	if rows == 0 {
		return m.MinRowHeight
	}
	h := m.BoxHeight*rows + m.BoxGap*(rows-1)
	if h < m.MinRowHeight {
		return m.MinRowHeight
	}
	return h
}

func boxRows(count, perRow int) int {
	if count <= 0 || perRow <= 0 {
		return 0
	}
	return (count + perRow - 1) / perRow
}

// bandInput is one band's content before placement
type bandInput struct {
	key       string
	label     string
	ungrouped bool
	current   []types.Item
	target    []types.Item
	height    int
}

// rowInput is one row's content and measured height
type rowInput struct {
	result types.ClassificationResult
	bands  []bandInput
	height int
}

// ProjectResults projects results, sectioning them by primary parent when
// opts.GroupByParent is set
func ProjectResults(results []types.ClassificationResult, opts DisplayOptions, m Metrics) *Geometry {
	if opts.GroupByParent {
		return Project(GroupByParent(results), opts, m)
	}
	return Project(Single(results), opts, m)
}

// Project lays out grouped results. It never fails: invalid metrics are
// replaced by DefaultMetrics and unknown options by their defaults. Identical
// inputs always produce identical geometry.
func Project(groups []PrimaryGroup, opts DisplayOptions, m Metrics) *Geometry {
	if err := m.Validate(); err != nil {
		log.Printf("[WARN] layout: %v; using default metrics", err)
		m = DefaultMetrics()
	}
	opts = opts.normalized()
	cols := computeColumns(opts, m)

	// Measure
	measured := make([][]rowInput, len(groups))
	for gi, g := range groups {
		rows := make([]rowInput, len(g.Results))
		for ri, res := range g.Results {
			rows[ri] = measureRow(res, opts, m)
		}
		measured[gi] = rows
	}

	// Place
	geo := &Geometry{
		Width:   cols.width,
		Metrics: m,
		Options: opts,
	}
	y := m.Padding
	geo.Columns = columnHeaders(cols, opts, m, y)
	y += m.ColumnHeaderHeight + m.RowGap
	bottom := y - m.RowGap

	geo.Sections = make([]Section, 0, len(groups))
	for gi, g := range groups {
		sec := Section{Label: g.Label}
		top := y
		if g.Label != "" {
			sec.Header = &TextRun{
				X:        m.Padding,
				Y:        baseline(y, m.SectionHeaderHeight, m.FontSize),
				Text:     g.Label,
				FontSize: m.FontSize,
				Class:    TextSectionHeader,
			}
			y += m.SectionHeaderHeight
		}

		sec.Rows = make([]Row, 0, len(measured[gi]))
		for _, ri := range measured[gi] {
			sec.Rows = append(sec.Rows, placeRow(ri, cols, opts, m, y))
			y += ri.height + m.RowGap
		}
		end := y
		if len(sec.Rows) > 0 {
			end -= m.RowGap
		}
		sec.Rect = Rect{X: m.Padding, Y: top, W: cols.width - 2*m.Padding, H: end - top}
		if (len(sec.Rows) > 0 || sec.Header != nil) && end > bottom {
			bottom = end
		}
		if len(sec.Rows) == 0 {
			y += m.RowGap
		}
		geo.Sections = append(geo.Sections, sec)
	}

	geo.Height = bottom + m.Padding
	return geo
}

func measureRow(res types.ClassificationResult, opts DisplayOptions, m Metrics) rowInput {
	ri := rowInput{result: res}
	if opts.RollupMode == types.RollupNone {
		ri.bands = []bandInput{{
			current: res.CurrentItems,
			target:  res.TargetItems,
			height:  RowHeight(len(res.CurrentItems), len(res.TargetItems), opts.ColumnView, m),
		}}
	} else {
		for _, g := range res.RollupGroups {
			ri.bands = append(ri.bands, bandInput{
				key:       g.Key.String(),
				label:     g.Label,
				ungrouped: g.Ungrouped,
				current:   g.CurrentItems,
				target:    g.TargetItems,
				height:    RowHeight(len(g.CurrentItems), len(g.TargetItems), opts.ColumnView, m),
			})
		}
	}

	for i, b := range ri.bands {
		if i > 0 {
			ri.height += m.BoxGap
		}
		ri.height += b.height
	}
	if ri.height < m.MinRowHeight {
		ri.height = m.MinRowHeight
	}
	return ri
}

func placeRow(ri rowInput, cols columns, opts DisplayOptions, m Metrics, y int) Row {
	res := ri.result
	row := Row{
		PrimaryItemID: res.PrimaryItem.ID,
		Label:         res.PrimaryItem.Name,
		Rect:          Rect{X: cols.primaryX, Y: y, W: cols.width - 2*m.Padding, H: ri.height},
		HiddenCount:   res.HiddenCount,
		Bands:         make([]Band, 0, len(ri.bands)),
	}

	maxLines := fitLines(ri.height, m)
	lines := Wrap(res.PrimaryItem.Name, cols.primaryW-2*m.BoxPadding, m.FontSize)
	if res.HiddenCount > 0 && maxLines > 1 && len(lines) >= maxLines {
		lines = lines[:maxLines-1]
	}
	row.Header = textLines(lines, cols.primaryX+m.BoxPadding, y, maxLines, m.FontSize, TextPrimary, m)
	if res.HiddenCount > 0 && len(row.Header) < maxLines {
		row.Header = append(row.Header, TextRun{
			X:        cols.primaryX + m.BoxPadding,
			Y:        lineY(y, len(row.Header), m),
			Text:     hiddenLabel(res.HiddenCount),
			FontSize: m.MinorFontSize,
			Class:    TextHidden,
		})
	}

	current := idSet(res.CurrentItems)
	target := idSet(res.TargetItems)

	by := y
	for _, b := range ri.bands {
		band := Band{
			Key:       b.key,
			Label:     b.label,
			Ungrouped: b.ungrouped,
			Rect:      Rect{X: cols.primaryX, Y: by, W: cols.width - 2*m.Padding, H: b.height},
		}
		if cols.rollupW > 0 && b.label != "" {
			wrapped := Wrap(b.label, cols.rollupW-2*m.BoxPadding, m.FontSize)
			band.Header = textLines(wrapped, cols.rollupX+m.BoxPadding, by, fitLines(b.height, m), m.FontSize, TextGroup, m)
		}
		if cols.currentW > 0 {
			band.Boxes = append(band.Boxes, placeBoxes(b.current, ColumnCurrent, cols.currentX, by, cols.boxW, current, target, opts, m)...)
		}
		if cols.targetW > 0 {
			band.Boxes = append(band.Boxes, placeBoxes(b.target, ColumnTarget, cols.targetX, by, cols.boxW, current, target, opts, m)...)
		}
		if band.Boxes == nil {
			band.Boxes = []Box{}
		}
		row.Bands = append(row.Bands, band)
		by += b.height + m.BoxGap
	}
	return row
}

func placeBoxes(items []types.Item, column Column, x0, y0, boxW int, current, target map[string]struct{}, opts DisplayOptions, m Metrics) []Box {
	boxes := make([]Box, 0, len(items))
	usable := boxW - 2*m.BoxPadding
	maxLines := fitLines(m.BoxHeight, m)

	for i, it := range items {
		col := i % m.BoxesPerRow
		line := i / m.BoxesPerRow
		rect := Rect{
			X: x0 + col*(boxW+m.BoxGap),
			Y: y0 + line*(m.BoxHeight+m.BoxGap),
			W: boxW,
			H: m.BoxHeight,
		}

		name := Wrap(it.Name, usable, m.FontSize)
		if len(name) > maxLines {
			name = name[:maxLines]
		}
		box := Box{
			ItemID: it.ID,
			Name:   it.Name,
			Status: it.LifecycleStatus,
			Column: column,
			Change: changeOf(it.ID, current, target),
			Rect:   rect,
			Lines:  textLines(name, rect.X+m.BoxPadding, rect.Y, maxLines, m.FontSize, TextName, m),
		}

		if remaining := maxLines - len(name); remaining > 0 {
			minor := Wrap(minorText(it, opts.MinorText), usable, m.MinorFontSize)
			if len(minor) > remaining {
				minor = minor[:remaining]
			}
			for k, text := range minor {
				box.Minor = append(box.Minor, TextRun{
					X:        rect.X + m.BoxPadding,
					Y:        lineY(rect.Y, len(name)+k, m),
					Text:     text,
					FontSize: m.MinorFontSize,
					Class:    TextMinor,
				})
			}
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func columnHeaders(cols columns, opts DisplayOptions, m Metrics, y int) []ColumnHeader {
	primary := opts.PrimaryTitle
	if primary == "" {
		primary = DefaultPrimaryTitle
	}
	rollup := opts.RollupTitle
	if rollup == "" {
		rollup = DefaultRollupTitle
	}

	var out []ColumnHeader
	add := func(label string, x, w int) {
		out = append(out, ColumnHeader{
			Label: label,
			Rect:  Rect{X: x, Y: y, W: w, H: m.ColumnHeaderHeight},
			Text: TextRun{
				X:        x + m.BoxPadding,
				Y:        baseline(y, m.ColumnHeaderHeight, m.FontSize),
				Text:     label,
				FontSize: m.FontSize,
				Class:    TextColumnHeader,
			},
		})
	}
	add(primary, cols.primaryX, cols.primaryW)
	if cols.rollupW > 0 {
		add(rollup, cols.rollupX, cols.rollupW)
	}
	if cols.currentW > 0 {
		add(CurrentTitle, cols.currentX, cols.currentW)
	}
	if cols.targetW > 0 {
		add(TargetTitle, cols.targetX, cols.targetW)
	}
	return out
}

func changeOf(id string, current, target map[string]struct{}) Change {
	_, inCurrent := current[id]
	_, inTarget := target[id]
	switch {
	case inCurrent && !inTarget:
		return ChangeRemoved
	case inTarget && !inCurrent:
		return ChangeAdded
	}
	return ChangeUnchanged
}

func minorText(it types.Item, opt MinorText) string {
	switch opt {
	case MinorLifecycle:
		return it.LifecycleStatus.Label()
	case MinorDescription:
		return it.Description
	}
	return ""
}

func textLines(lines []string, x, top, maxLines, fontSize int, class TextClass, m Metrics) []TextRun {
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	out := make([]TextRun, 0, len(lines))
	for k, text := range lines {
		out = append(out, TextRun{X: x, Y: lineY(top, k, m), Text: text, FontSize: fontSize, Class: class})
	}
	return out
}

// fitLines is the number of text lines that fit in height, at least one
func fitLines(height int, m Metrics) int {
	n := (height - 2*m.BoxPadding) / m.LineHeight
	if n < 1 {
		return 1
	}
	return n
}

// lineY is the baseline of line k inside a box whose top edge is at top
func lineY(top, k int, m Metrics) int {
	return top + m.BoxPadding + (k+1)*m.LineHeight - (m.LineHeight-m.FontSize)/2
}

// baseline vertically centres a single line of text in a strip
func baseline(top, height, fontSize int) int {
	return top + (height+fontSize)/2 - 2
}

func hiddenLabel(n int) string {
	if n == 1 {
		return "+1 hidden item"
	}
	return fmt.Sprintf("+%d hidden items", n)
}

func idSet(items []types.Item) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it.ID] = struct{}{}
	}
	return set
}
