package skyview

// Style holds the display attributes for sky-view rendering. It is an
// explicit structure with a fixed set of recognized keys, not a free-form
// map: unknown YAML keys are rejected by the strict loader in cmd.
type Style struct {
	// DefaultColor is used for any object without an override. Default "red".
	DefaultColor string `yaml:"default_color"`
	// MarkerSize is the polar marker size in display points. Default 6.
	MarkerSize int `yaml:"marker_size"`
	// Colors maps object identifiers to display colors.
	Colors map[string]string `yaml:"colors"`
}

// DefaultStyle returns the built-in display attributes: red fallback with
// the Sun drawn orange and the Moon (Horizons ID 301) gray.
func DefaultStyle() Style {
	return Style{
		DefaultColor: "red",
		MarkerSize:   6,
		Colors: map[string]string{
			"Sun": "orange",
			"301": "gray",
		},
	}
}

// ColorFor returns the display color for an object, falling back to the
// default when no override is configured.
func (s Style) ColorFor(name string) string {
	if c, ok := s.Colors[name]; ok {
		return c
	}
	if s.DefaultColor != "" {
		return s.DefaultColor
	}
	return "red"
}
