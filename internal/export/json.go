package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/archlens/targetview/internal/layout"
)

// WriteJSON writes g as indented JSON for interactive renderers
func WriteJSON(w io.Writer, g *layout.Geometry) error {
	if g == nil {
		return fmt.Errorf("geometry is nil")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("failed to encode geometry: %w", err)
	}
	return nil
}
