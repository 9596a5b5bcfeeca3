package layout

import (
	"github.com/archlens/targetview/internal/types"
)

// Rect is an axis-aligned rectangle in absolute canvas coordinates
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Bottom returns the y coordinate just below the rectangle
func (r Rect) Bottom() int { return r.Y + r.H }

// Right returns the x coordinate just right of the rectangle
func (r Rect) Right() int { return r.X + r.W }

// TextClass tags a text run so renderers can style it
type TextClass string

const (
	TextColumnHeader  TextClass = "column-header"
	TextSectionHeader TextClass = "section-header"
	TextPrimary       TextClass = "primary"
	TextGroup         TextClass = "group"
	TextName          TextClass = "name"
	TextMinor         TextClass = "minor"
	TextHidden        TextClass = "hidden"
)

// TextRun is one line of text; X/Y is the baseline start
type TextRun struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Text     string    `json:"text"`
	FontSize int       `json:"font_size"`
	Class    TextClass `json:"class"`
}

// Column identifies the Current or Target side of a row
type Column string

const (
	ColumnCurrent Column = "current"
	ColumnTarget  Column = "target"
)

// Change describes how an item moves between the two states
type Change string

const (
	ChangeUnchanged Change = "unchanged"
	ChangeAdded     Change = "added"   // target only
	ChangeRemoved   Change = "removed" // current only
)

// Box is one item rectangle
type Box struct {
	ItemID string                `json:"item_id"`
	Name   string                `json:"name"`
	Status types.LifecycleStatus `json:"status,omitempty"`
	Column Column                `json:"column"`
	Change Change                `json:"change"`
	Rect   Rect                  `json:"rect"`
	Lines  []TextRun             `json:"lines"`
	Minor  []TextRun             `json:"minor,omitempty"`
}

// Band is the horizontal strip of a row holding one rollup group. Rows
// without a rollup have a single unlabeled band.
type Band struct {
	Key       string    `json:"key,omitempty"`
	Label     string    `json:"label,omitempty"`
	Ungrouped bool      `json:"ungrouped,omitempty"`
	Rect      Rect      `json:"rect"`
	Header    []TextRun `json:"header,omitempty"`
	Boxes     []Box     `json:"boxes"`
}

// Row holds everything drawn for one primary item
type Row struct {
	PrimaryItemID string    `json:"primary_item_id"`
	Label         string    `json:"label"`
	Rect          Rect      `json:"rect"`
	Header        []TextRun `json:"header"`
	Bands         []Band    `json:"bands"`
	HiddenCount   int       `json:"hidden_count,omitempty"`
}

// Section groups rows under a primary parent heading
type Section struct {
	Label  string   `json:"label,omitempty"`
	Rect   Rect     `json:"rect"`
	Header *TextRun `json:"header,omitempty"`
	Rows   []Row    `json:"rows"`
}

// ColumnHeader labels one vertical column of the canvas
type ColumnHeader struct {
	Label string  `json:"label"`
	Rect  Rect    `json:"rect"`
	Text  TextRun `json:"text"`
}

// Geometry is the complete projected view
type Geometry struct {
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Columns  []ColumnHeader `json:"columns"`
	Sections []Section      `json:"sections"`
	Metrics  Metrics        `json:"metrics"`
	Options  DisplayOptions `json:"options"`
}

// BoxCount returns the number of item boxes in the geometry
func (g *Geometry) BoxCount() int {
	n := 0
	for _, s := range g.Sections {
		for _, r := range s.Rows {
			for _, b := range r.Bands {
				n += len(b.Boxes)
			}
		}
	}
	return n
}
