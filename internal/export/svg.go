// Package export serializes projected geometry for static consumers.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

// Theme holds the colours and font used by WriteSVG
type Theme struct {
	FontFamily string
	Background string
	Text       string
	MinorText  string
	Header     string
	Section    string
	Stroke     string
	BandFill   string
	// Fill by lifecycle status; StatusNone is the fallback
	Fill map[types.LifecycleStatus]string
	// Stroke override by change marker
	ChangeStroke map[layout.Change]string
}

// DefaultTheme returns the palette used for exported diagrams
func DefaultTheme() Theme {
	return Theme{
		FontFamily: "Arial, sans-serif",
		Background: "#ffffff",
		Text:       "#1f2933",
		MinorText:  "#52606d",
		Header:     "#102a43",
		Section:    "#e4e7eb",
		Stroke:     "#9aa5b1",
		BandFill:   "#f5f7fa",
		Fill: map[types.LifecycleStatus]string{
			types.StatusNone:     "#ffffff",
			types.StatusPlan:     "#e0e8f9",
			types.StatusEmerging: "#e3f8ff",
			types.StatusInvest:   "#e3f9e5",
			types.StatusDivest:   "#ffe3e3",
			types.StatusStable:   "#f0f4f8",
		},
		ChangeStroke: map[layout.Change]string{
			layout.ChangeAdded:   "#27ab83",
			layout.ChangeRemoved: "#e12d39",
		},
	}
}

func (t Theme) fill(status types.LifecycleStatus) string {
	if c, ok := t.Fill[status]; ok {
		return c
	}
	if c, ok := t.Fill[types.StatusNone]; ok {
		return c
	}
	return "#ffffff"
}

func (t Theme) stroke(change layout.Change) string {
	if c, ok := t.ChangeStroke[change]; ok {
		return c
	}
	return t.Stroke
}

// WriteSVG renders g as a standalone SVG document: one rectangle per item with
// its wrapped name and optional minor lines, grouped under section, row and
// rollup headers
func WriteSVG(w io.Writer, g *layout.Geometry, theme Theme) error {
	if g == nil {
		return fmt.Errorf("geometry is nil")
	}

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.column-header { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
.section-header { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
.primary { font-family: %s; font-size: %dpx; font-weight: bold; fill: %s; }
.group { font-family: %s; font-size: %dpx; font-style: italic; fill: %s; }
.name { font-family: %s; font-size: %dpx; fill: %s; }
.minor { font-family: %s; font-size: %dpx; fill: %s; }
.hidden { font-family: %s; font-size: %dpx; font-style: italic; fill: %s; }
</style>
</defs>
`, g.Width, g.Height, g.Width, g.Height, theme.Background,
		theme.FontFamily, g.Metrics.FontSize, theme.Header,
		theme.FontFamily, g.Metrics.FontSize, theme.Header,
		theme.FontFamily, g.Metrics.FontSize, theme.Text,
		theme.FontFamily, g.Metrics.FontSize, theme.MinorText,
		theme.FontFamily, g.Metrics.FontSize, theme.Text,
		theme.FontFamily, g.Metrics.MinorFontSize, theme.MinorText,
		theme.FontFamily, g.Metrics.MinorFontSize, theme.MinorText))

	for _, col := range g.Columns {
		writeText(&svg, col.Text)
	}

	for _, sec := range g.Sections {
		if sec.Header != nil {
			svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
				sec.Rect.X, sec.Rect.Y, sec.Rect.W, g.Metrics.SectionHeaderHeight, theme.Section))
			writeText(&svg, *sec.Header)
		}
		for _, row := range sec.Rows {
			svg.WriteString(fmt.Sprintf(`<g class="row" data-item="%s">`+"\n", escapeXML(row.PrimaryItemID)))
			svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
				row.Rect.X, row.Rect.Y, row.Rect.Right(), row.Rect.Y, theme.Stroke))
			for _, run := range row.Header {
				writeText(&svg, run)
			}
			for i, band := range row.Bands {
				if len(row.Bands) > 1 && i%2 == 1 {
					svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
						band.Rect.X, band.Rect.Y, band.Rect.W, band.Rect.H, theme.BandFill))
				}
				for _, run := range band.Header {
					writeText(&svg, run)
				}
				for _, box := range band.Boxes {
					writeBox(&svg, box, theme)
				}
			}
			svg.WriteString("</g>\n")
		}
	}

	svg.WriteString("</svg>\n")
	if _, err := io.WriteString(w, svg.String()); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

func writeBox(svg *strings.Builder, box layout.Box, theme Theme) {
	dash := ""
	if box.Change == layout.ChangeAdded {
		dash = ` stroke-dasharray="4 2"`
	}
	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" rx="4" fill="%s" stroke="%s" stroke-width="1"%s data-item="%s" data-change="%s"/>`+"\n",
		box.Rect.X, box.Rect.Y, box.Rect.W, box.Rect.H,
		theme.fill(box.Status), theme.stroke(box.Change), dash,
		escapeXML(box.ItemID), box.Change))
	for _, run := range box.Lines {
		writeText(svg, run)
	}
	for _, run := range box.Minor {
		writeText(svg, run)
	}
}

func writeText(svg *strings.Builder, run layout.TextRun) {
	if run.Text == "" {
		return
	}
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="%s">%s</text>`+"\n",
		run.X, run.Y, run.Class, escapeXML(run.Text)))
}

// escapeXML escapes s for use in text and attribute values. Characters that
// XML cannot carry, such as C0 controls, become U+FFFD.
func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
