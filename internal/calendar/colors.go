package calendar

import "strings"

// ColorMap maps the app's display palette (hex) to Google Calendar color
// identifiers. The provider-side ids are an external contract, so the map is
// injectable rather than baked into the gateway.
type ColorMap map[string]string

const (
	// fallbackColorID is used for any hex value the map does not know.
	fallbackColorID = "1" // lavender
	// completedColorID marks mirrored events of completed tasks.
	completedColorID = "8" // graphite
)

// DefaultColorMap returns the fixed palette-to-provider mapping.
func DefaultColorMap() ColorMap {
	return ColorMap{
		"#00A19D": "10", // Teal
		"#4A90E2": "1",  // Blue
		"#7ED321": "11", // Green
		"#F5A623": "6",  // Orange
		"#F8B6D3": "4",  // Pink
		"#9013FE": "3",  // Purple
	}
}

// ColorID resolves a display color to a provider color id, falling back to
// the default id for unmapped values. Lookup is case-insensitive.
func (m ColorMap) ColorID(hex string) string {
	if id, ok := m[strings.ToUpper(hex)]; ok {
		return id
	}
	return fallbackColorID
}
