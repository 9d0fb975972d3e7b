package config

import (
	"fmt"

	"github.com/ayusman/mudra/internal/store"
)

// ApplyTags replaces the show/hide lists and classifier order with the stored
// tag table. Rows must already be ordered by position. Disabled rows are left
// out of the registry entirely. An empty table leaves the configuration as is.
func (c *Config) ApplyTags(tags []*store.GestureTag) error {
	if len(tags) == 0 {
		return nil
	}

	g := &c.Gesture
	g.Show, g.Hide, g.Order = nil, nil, []string{}

	for _, t := range tags {
		if !t.Enabled {
			continue
		}
		g.Order = append(g.Order, t.Kind)
		switch t.Class {
		case "show":
			g.Show = append(g.Show, t.Kind)
		case "hide":
			g.Hide = append(g.Hide, t.Kind)
		case "none", "":
		default:
			return fmt.Errorf("%w: gesture %q has unknown class %q", ErrInvalidConfig, t.Kind, t.Class)
		}
	}
	return nil
}
