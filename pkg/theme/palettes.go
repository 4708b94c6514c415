package theme

// Palette is a named colour choice shown in the theme picker.
type Palette struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	// Color is the preview swatch, the 500 shade.
	Color string `json:"color"`
}

// ChartPalette holds the series colours derived from a primary palette.
type ChartPalette struct {
	Main  []string `json:"main"`
	Light []string `json:"light"`
}

// Primaries lists the selectable primary palettes.
var Primaries = []Palette{
	{Name: "azia", Label: "Azia", Color: "#3b82f6"},
	{Name: "emerald", Label: "Emerald", Color: "#10b981"},
	{Name: "violet", Label: "Violet", Color: "#8b5cf6"},
	{Name: "amber", Label: "Amber", Color: "#f59e0b"},
	{Name: "rose", Label: "Rose", Color: "#f43f5e"},
	{Name: "teal", Label: "Teal", Color: "#14b8a6"},
}

// Surfaces lists the selectable surface palettes.
var Surfaces = []Palette{
	{Name: "slate", Label: "Slate", Color: "#64748b"},
	{Name: "gray", Label: "Gray", Color: "#6b7280"},
	{Name: "zinc", Label: "Zinc", Color: "#71717a"},
	{Name: "neutral", Label: "Neutral", Color: "#737373"},
	{Name: "stone", Label: "Stone", Color: "#78716c"},
}

var chartPalettes = map[string]ChartPalette{
	"azia": {
		Main:  []string{"#3b82f6", "#06b6d4", "#8b5cf6", "#f59e0b", "#10b981", "#ef4444"},
		Light: []string{"#93c5fd", "#67e8f9", "#c4b5fd", "#fcd34d", "#6ee7b7", "#fca5a5"},
	},
	"emerald": {
		Main:  []string{"#10b981", "#14b8a6", "#84cc16", "#0ea5e9", "#f59e0b", "#6366f1"},
		Light: []string{"#6ee7b7", "#5eead4", "#bef264", "#7dd3fc", "#fcd34d", "#a5b4fc"},
	},
	"violet": {
		Main:  []string{"#8b5cf6", "#ec4899", "#6366f1", "#06b6d4", "#f59e0b", "#10b981"},
		Light: []string{"#c4b5fd", "#f9a8d4", "#a5b4fc", "#67e8f9", "#fcd34d", "#6ee7b7"},
	},
	"amber": {
		Main:  []string{"#f59e0b", "#f97316", "#eab308", "#3b82f6", "#10b981", "#8b5cf6"},
		Light: []string{"#fcd34d", "#fdba74", "#fde047", "#93c5fd", "#6ee7b7", "#c4b5fd"},
	},
	"rose": {
		Main:  []string{"#f43f5e", "#ec4899", "#f97316", "#8b5cf6", "#0ea5e9", "#22c55e"},
		Light: []string{"#fda4af", "#f9a8d4", "#fdba74", "#c4b5fd", "#7dd3fc", "#86efac"},
	},
	"teal": {
		Main:  []string{"#14b8a6", "#0ea5e9", "#22c55e", "#6366f1", "#f59e0b", "#ec4899"},
		Light: []string{"#5eead4", "#7dd3fc", "#86efac", "#a5b4fc", "#fcd34d", "#f9a8d4"},
	},
}

func findPalette(list []Palette, name string) (Palette, bool) {
	for _, p := range list {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// ChartPaletteFor returns the chart palette of a primary palette, falling
// back to the default primary's.
func ChartPaletteFor(primary string) ChartPalette {
	if p, ok := chartPalettes[primary]; ok {
		return p
	}
	return chartPalettes[DefaultPrimary]
}
