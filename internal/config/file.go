package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

// ProjectDir is the per-project directory holding the database and view.yaml
const ProjectDir = ".targetview"

// ViewFileName is the view configuration file inside ProjectDir
const ViewFileName = "view.yaml"

// ViewFile represents the structure of .targetview/view.yaml. Unset fields
// keep their defaults.
type ViewFile struct {
	Layout   LayoutSection   `yaml:"layout"`
	Defaults DefaultsSection `yaml:"defaults"`
}

// LayoutSection holds the presentation overrides
type LayoutSection struct {
	BoxesPerRow   *int    `yaml:"boxes_per_row,omitempty"`
	BoxWidth      *int    `yaml:"box_width,omitempty"`
	BoxHeight     *int    `yaml:"box_height,omitempty"`
	MinRowHeight  *int    `yaml:"min_row_height,omitempty"`
	FontSize      *int    `yaml:"font_size,omitempty"`
	MinorText     *string `yaml:"minor_text,omitempty"`
	ColumnView    *string `yaml:"column_view,omitempty"`
	FilterMode    *string `yaml:"filter_mode,omitempty"`
	GroupByParent *bool   `yaml:"group_by_parent,omitempty"`
}

// DefaultsSection holds the lens selection used when the command line
// does not name one
type DefaultsSection struct {
	PrimaryLens   string `yaml:"primary_lens,omitempty"`
	SecondaryLens string `yaml:"secondary_lens,omitempty"`
	RollupMode    string `yaml:"rollup_mode,omitempty"`
	RollupLens    string `yaml:"rollup_lens,omitempty"`
}

// Selection is the default query selection from view.yaml
type Selection struct {
	PrimaryLens   types.LensKey
	SecondaryLens types.LensKey
	RollupMode    types.RollupMode
	RollupLens    types.LensKey
}

// ViewFilePath returns the path of view.yaml under projectRoot
func ViewFilePath(projectRoot string) string {
	return filepath.Join(projectRoot, ProjectDir, ViewFileName)
}

// LoadViewFile loads .targetview/view.yaml. A missing file yields an empty
// ViewFile.
func LoadViewFile(projectRoot string) (*ViewFile, error) {
	path := ViewFilePath(projectRoot)

	// If file doesn't exist, nothing overrides the defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &ViewFile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading view file: %w", err)
	}

	var vf ViewFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parsing view file: %w", err)
	}
	return &vf, nil
}

// SaveViewFile writes vf to .targetview/view.yaml
func SaveViewFile(projectRoot string, vf *ViewFile) error {
	path := ViewFilePath(projectRoot)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s directory: %w", ProjectDir, err)
	}

	data, err := yaml.Marshal(vf)
	if err != nil {
		return fmt.Errorf("marshaling view file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing view file: %w", err)
	}
	return nil
}

// Apply overlays the file's layout section onto cfg
func (vf *ViewFile) Apply(cfg *ViewConfig) {
	l := vf.Layout
	if l.BoxesPerRow != nil {
		cfg.BoxesPerRow = *l.BoxesPerRow
	}
	if l.BoxWidth != nil {
		cfg.BoxWidth = *l.BoxWidth
	}
	if l.BoxHeight != nil {
		cfg.BoxHeight = *l.BoxHeight
	}
	if l.MinRowHeight != nil {
		cfg.MinRowHeight = *l.MinRowHeight
	}
	if l.FontSize != nil {
		cfg.FontSize = *l.FontSize
	}
	if l.MinorText != nil {
		cfg.MinorText = layout.MinorText(*l.MinorText)
	}
	if l.ColumnView != nil {
		cfg.ColumnView = layout.ColumnView(*l.ColumnView)
	}
	if l.FilterMode != nil {
		cfg.FilterMode = types.FilterMode(*l.FilterMode)
	}
	if l.GroupByParent != nil {
		cfg.GroupByParent = *l.GroupByParent
	}
}

// Selection returns the default lens selection
func (vf *ViewFile) Selection() Selection {
	return Selection{
		PrimaryLens:   types.LensKey(vf.Defaults.PrimaryLens),
		SecondaryLens: types.LensKey(vf.Defaults.SecondaryLens),
		RollupMode:    types.RollupMode(vf.Defaults.RollupMode),
		RollupLens:    types.LensKey(vf.Defaults.RollupLens),
	}
}

// LoadViewConfig resolves the effective view configuration for a project:
// defaults, then view.yaml, then TV_* environment variables
func LoadViewConfig(projectRoot string) (ViewConfig, *ViewFile, error) {
	cfg := DefaultViewConfig()

	vf, err := LoadViewFile(projectRoot)
	if err != nil {
		return cfg, nil, err
	}
	vf.Apply(&cfg)

	if err := applyViewEnv(&cfg); err != nil {
		return cfg, vf, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, vf, fmt.Errorf("invalid view configuration: %w", err)
	}
	return cfg, vf, nil
}

// ExampleViewFile returns an example view.yaml
func ExampleViewFile() string {
	return `# Target View configuration
layout:
  boxes_per_row: 3
  box_width: 150
  box_height: 48
  min_row_height: 64
  font_size: 12
  minor_text: lifecycle      # none | lifecycle | description
  column_view: both          # both | current | target
  filter_mode: only-related  # only-related | show-secondary
  group_by_parent: false

defaults:
  primary_lens: applications
  secondary_lens: platforms
  # rollup_mode: relation    # attribute | relation
  # rollup_lens: capabilities
`
}
