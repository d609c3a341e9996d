package plotpage

// Theme represents a color theme for reports.
type Theme string

const (
	// ThemeLight is the light color theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark color theme.
	ThemeDark Theme = "dark"
)

// ParseTheme maps a configuration value to a theme. Unknown values select
// the dark theme.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeLight {
		return ThemeLight
	}

	return ThemeDark
}

// ThemeConfig holds the theme-specific styling values.
type ThemeConfig struct {
	// Page colors.
	Background    string
	Surface       string
	Border        string
	TextPrimary   string
	TextSecondary string
	TextMuted     string
	Accent        string

	// Chart colors.
	ChartBackground string
	ChartGrid       string
	ChartAxis       string
	ChartText       string
	ChartTextMuted  string
	Link            string
	Node            string
	Leaf            string

	// Series colors in convergence metric order.
	Series []string
}

// GetThemeConfig returns the configuration for a given theme.
func GetThemeConfig(theme Theme) ThemeConfig {
	if theme == ThemeLight {
		return lightTheme
	}

	return darkTheme
}

// SeriesColor returns the color of the i-th series, cycling the palette.
func (tc ThemeConfig) SeriesColor(i int) string {
	if len(tc.Series) == 0 {
		return tc.Accent
	}

	return tc.Series[i%len(tc.Series)]
}

var lightTheme = ThemeConfig{
	Background:    "#fafaf9", // stone-50.
	Surface:       "#ffffff",
	Border:        "#e7e5e4", // stone-200.
	TextPrimary:   "#1c1917", // stone-900.
	TextSecondary: "#44403c", // stone-700.
	TextMuted:     "#78716c", // stone-500.
	Accent:        "#a16207", // amber-700.

	ChartBackground: "transparent",
	ChartGrid:       "#e7e5e4",
	ChartAxis:       "#a8a29e", // stone-400.
	ChartText:       "#44403c",
	ChartTextMuted:  "#78716c",
	Link:            "#57534e", // stone-600.
	Node:            "#a16207",
	Leaf:            "#0369a1", // sky-700.

	Series: []string{
		"#0369a1", // sky-700.
		"#a16207", // amber-700.
		"#4d7c0f", // lime-700.
		"#7c3aed", // violet-600.
	},
}

var darkTheme = ThemeConfig{
	Background:    "#0c0a09", // stone-950.
	Surface:       "#1c1917", // stone-900.
	Border:        "#44403c", // stone-700.
	TextPrimary:   "#fafaf9", // stone-50.
	TextSecondary: "#d6d3d1", // stone-300.
	TextMuted:     "#a8a29e", // stone-400.
	Accent:        "#d97706", // amber-600.

	ChartBackground: "transparent",
	ChartGrid:       "#44403c",
	ChartAxis:       "#57534e", // stone-600.
	ChartText:       "#d6d3d1",
	ChartTextMuted:  "#a8a29e",
	Link:            "#a8a29e",
	Node:            "#fbbf24", // amber-400.
	Leaf:            "#38bdf8", // sky-400.

	Series: []string{
		"#38bdf8", // sky-400.
		"#fbbf24", // amber-400.
		"#a3e635", // lime-400.
		"#a78bfa", // violet-400.
	},
}
