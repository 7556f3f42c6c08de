// Package theme defines the colour themes of the roomtally dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme names the colour roles the dashboard draws with.
type Theme struct {
	Name          string
	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and bars
	SurfaceHover  lipgloss.Color // active tab
	SurfaceBright lipgloss.Color // selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused card
	TextDim       lipgloss.Color
	TextMuted     lipgloss.Color
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color
	AccentBright  lipgloss.Color
	Money         lipgloss.Color // totals and amounts
	MoneyBright   lipgloss.Color
	Warn          lipgloss.Color
	Danger        lipgloss.Color
	Highlight     lipgloss.Color // keys in help text
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceHover:  lipgloss.Color("#282726"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	Money:         lipgloss.Color("#879A39"),
	MoneyBright:   lipgloss.Color("#A3B859"),
	Warn:          lipgloss.Color("#DA702C"),
	Danger:        lipgloss.Color("#D14D41"),
	Highlight:     lipgloss.Color("#24837B"),
}

// TokyoNight is a cool blue theme.
var TokyoNight = Theme{
	Name:          "tokyo-night",
	Background:    lipgloss.Color("#1A1B26"),
	Surface:       lipgloss.Color("#24283B"),
	SurfaceHover:  lipgloss.Color("#343A52"),
	SurfaceBright: lipgloss.Color("#414868"),
	Border:        lipgloss.Color("#565F89"),
	BorderAccent:  lipgloss.Color("#7AA2F7"),
	TextDim:       lipgloss.Color("#565F89"),
	TextMuted:     lipgloss.Color("#A9B1D6"),
	TextPrimary:   lipgloss.Color("#C0CAF5"),
	Accent:        lipgloss.Color("#7AA2F7"),
	AccentBright:  lipgloss.Color("#A9C1FF"),
	Money:         lipgloss.Color("#9ECE6A"),
	MoneyBright:   lipgloss.Color("#B9E87A"),
	Warn:          lipgloss.Color("#FF9E64"),
	Danger:        lipgloss.Color("#F7768E"),
	Highlight:     lipgloss.Color("#7DCFFF"),
}

// Lagoon is a light-on-teal theme.
var Lagoon = Theme{
	Name:          "lagoon",
	Background:    lipgloss.Color("#0B1E24"),
	Surface:       lipgloss.Color("#12303A"),
	SurfaceHover:  lipgloss.Color("#1B4250"),
	SurfaceBright: lipgloss.Color("#245566"),
	Border:        lipgloss.Color("#2E6B7E"),
	BorderAccent:  lipgloss.Color("#F2C14E"),
	TextDim:       lipgloss.Color("#4F7F8C"),
	TextMuted:     lipgloss.Color("#8FB8C2"),
	TextPrimary:   lipgloss.Color("#EAF6F6"),
	Accent:        lipgloss.Color("#F2C14E"),
	AccentBright:  lipgloss.Color("#FFD97A"),
	Money:         lipgloss.Color("#5FD3A5"),
	MoneyBright:   lipgloss.Color("#8AF0C6"),
	Warn:          lipgloss.Color("#F78154"),
	Danger:        lipgloss.Color("#E4572E"),
	Highlight:     lipgloss.Color("#4D9DE0"),
}

// Terminal uses ANSI 16 colours only.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceHover:  lipgloss.Color("8"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	Money:         lipgloss.Color("2"),
	MoneyBright:   lipgloss.Color("10"),
	Warn:          lipgloss.Color("3"),
	Danger:        lipgloss.Color("1"),
	Highlight:     lipgloss.Color("6"),
}

// All available themes.
var All = []Theme{FlexokiDark, TokyoNight, Lagoon, Terminal}

// Names lists the theme names in All order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a theme by name.
func Lookup(name string) (Theme, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	if t, ok := Lookup(name); ok {
		return t
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
