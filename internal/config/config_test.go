package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

var viewEnvVars = []string{
	"TV_BOXES_PER_ROW", "TV_BOX_WIDTH", "TV_BOX_HEIGHT", "TV_MIN_ROW_HEIGHT",
	"TV_FONT_SIZE", "TV_MINOR_TEXT", "TV_COLUMN_VIEW", "TV_FILTER_MODE", "TV_GROUP_BY_PARENT",
}

// clearViewEnv blanks every TV_ view variable for the duration of the test
func clearViewEnv(t *testing.T) {
	t.Helper()
	for _, key := range viewEnvVars {
		t.Setenv(key, "")
	}
}

func TestViewConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg ViewConfig)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg ViewConfig) {
				assert.Equal(t, DefaultViewConfig(), cfg)
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"TV_BOXES_PER_ROW":   "4",
				"TV_BOX_WIDTH":       "180",
				"TV_BOX_HEIGHT":      "60",
				"TV_MIN_ROW_HEIGHT":  "80",
				"TV_FONT_SIZE":       "14",
				"TV_MINOR_TEXT":      "description",
				"TV_COLUMN_VIEW":     "target",
				"TV_FILTER_MODE":     "show-secondary",
				"TV_GROUP_BY_PARENT": "true",
			},
			check: func(t *testing.T, cfg ViewConfig) {
				assert.Equal(t, 4, cfg.BoxesPerRow)
				assert.Equal(t, 180, cfg.BoxWidth)
				assert.Equal(t, 60, cfg.BoxHeight)
				assert.Equal(t, 80, cfg.MinRowHeight)
				assert.Equal(t, 14, cfg.FontSize)
				assert.Equal(t, layout.MinorDescription, cfg.MinorText)
				assert.Equal(t, layout.ViewTarget, cfg.ColumnView)
				assert.Equal(t, types.FilterShowSecondary, cfg.FilterMode)
				assert.True(t, cfg.GroupByParent)
			},
		},
		{
			name:    "invalid integer",
			envVars: map[string]string{"TV_BOXES_PER_ROW": "three"},
			wantErr: true,
		},
		{
			name:    "invalid bool",
			envVars: map[string]string{"TV_GROUP_BY_PARENT": "maybe"},
			wantErr: true,
		},
		{
			name:    "out of range",
			envVars: map[string]string{"TV_BOXES_PER_ROW": "13"},
			wantErr: true,
		},
		{
			name:    "unknown filter mode",
			envVars: map[string]string{"TV_FILTER_MODE": "everything"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearViewEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := ViewConfigFromEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestViewConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ViewConfig)
		wantErr string
	}{
		{"defaults", func(*ViewConfig) {}, ""},
		{"zero boxes", func(c *ViewConfig) { c.BoxesPerRow = 0 }, "boxes_per_row"},
		{"narrow box", func(c *ViewConfig) { c.BoxWidth = 10 }, "box_width"},
		{"short box", func(c *ViewConfig) { c.BoxHeight = 10 }, "box_height"},
		{"negative row height", func(c *ViewConfig) { c.MinRowHeight = -1 }, "min_row_height"},
		{"huge font", func(c *ViewConfig) { c.FontSize = 72 }, "font_size"},
		{"bad minor", func(c *ViewConfig) { c.MinorText = "owner" }, "minor_text"},
		{"bad columns", func(c *ViewConfig) { c.ColumnView = "" }, "column_view"},
		{"bad filter", func(c *ViewConfig) { c.FilterMode = "" }, "filter_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultViewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestViewConfigMetricsAndOptions(t *testing.T) {
	cfg := DefaultViewConfig()
	cfg.FontSize = 20
	cfg.BoxesPerRow = 2

	m := cfg.Metrics()
	assert.Equal(t, 2, m.BoxesPerRow)
	assert.Equal(t, 20, m.FontSize)
	assert.GreaterOrEqual(t, m.LineHeight, 22)
	assert.NoError(t, m.Validate())

	opts := cfg.DisplayOptions(types.RollupAttribute)
	assert.Equal(t, types.RollupAttribute, opts.RollupMode)
	assert.NoError(t, opts.Validate())

	assert.True(t, strings.HasPrefix(cfg.String(), "ViewConfig{BoxesPerRow: 2"))
}

func TestLoadViewFileMissing(t *testing.T) {
	vf, err := LoadViewFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ViewFile{}, vf)
}

func TestLoadViewConfigLayering(t *testing.T) {
	clearViewEnv(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDir), 0755))
	require.NoError(t, os.WriteFile(ViewFilePath(root), []byte(ExampleViewFile()), 0644))

	t.Setenv("TV_COLUMN_VIEW", "current")

	cfg, vf, err := LoadViewConfig(root)
	require.NoError(t, err)
	assert.Equal(t, layout.MinorLifecycle, cfg.MinorText, "from view.yaml")
	assert.Equal(t, layout.ViewCurrent, cfg.ColumnView, "environment wins over the file")
	assert.Equal(t, 3, cfg.BoxesPerRow)

	sel := vf.Selection()
	assert.Equal(t, types.LensKey("applications"), sel.PrimaryLens)
	assert.Equal(t, types.LensKey("platforms"), sel.SecondaryLens)
	assert.Equal(t, types.RollupNone, sel.RollupMode)
}

func TestSaveViewFileRoundTrip(t *testing.T) {
	clearViewEnv(t)
	root := t.TempDir()
	perRow := 5
	group := true
	vf := &ViewFile{
		Layout:   LayoutSection{BoxesPerRow: &perRow, GroupByParent: &group},
		Defaults: DefaultsSection{PrimaryLens: "teams", SecondaryLens: "applications", RollupMode: "attribute"},
	}
	require.NoError(t, SaveViewFile(root, vf))

	cfg, loaded, err := LoadViewConfig(root)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BoxesPerRow)
	assert.True(t, cfg.GroupByParent)
	assert.Equal(t, layout.ViewBoth, cfg.ColumnView, "unset fields keep defaults")
	assert.Equal(t, types.RollupAttribute, loaded.Selection().RollupMode)
}

func TestLoadViewFileInvalidYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDir), 0755))
	require.NoError(t, os.WriteFile(ViewFilePath(root), []byte("layout: [unclosed"), 0644))

	_, err := LoadViewFile(root)
	assert.Error(t, err)
}

func TestLoadViewConfigRejectsBadFile(t *testing.T) {
	clearViewEnv(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ProjectDir), 0755))
	require.NoError(t, os.WriteFile(ViewFilePath(root), []byte("layout:\n  boxes_per_row: 0\n"), 0644))

	_, _, err := LoadViewConfig(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boxes_per_row")
}
