package styles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Navbar       string
	ListTab      string
	SelectedItem string
	Scrollbar    string
	Error        string
}

// Theme holds the color tokens of the terminal renderer.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "hidden"

	Base   BaseColors
	Chrome ChromeColors
}

// DefaultTheme is the baseline dark palette.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "99",
		Border:     "240",
	},
	Chrome: ChromeColors{
		Navbar:       "61",
		ListTab:      "250",
		SelectedItem: "141",
		Scrollbar:    "246",
		Error:        "203",
	},
}

// HighContrastTheme trades the accent palette for legibility.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "sharp",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "226",
		Border:     "231",
	},
	Chrome: ChromeColors{
		Navbar:       "226",
		ListTab:      "231",
		SelectedItem: "51",
		Scrollbar:    "231",
		Error:        "196",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// ThemeNames returns the registered theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTheme resolves a theme by name. An empty name is the default theme.
func LookupTheme(name string) (Theme, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return DefaultTheme, nil
	}
	theme, ok := Themes[name]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(ThemeNames(), ", "))
	}
	return theme, nil
}

// Style is the explicit style configuration handed to whatever renders a
// view model. Nothing in the core reads it from global state.
type Style struct {
	Theme  Theme
	Layout Layout
}

// New returns the style for the named theme with the default layout.
func New(themeName string) (Style, error) {
	theme, err := LookupTheme(themeName)
	if err != nil {
		return Style{}, err
	}
	return Style{Theme: theme, Layout: DefaultLayout()}, nil
}

func (s Style) Base() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Base.Foreground))
}

func (s Style) Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Base.Muted))
}

func (s Style) Accent() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Base.Accent)).Bold(true)
}

func (s Style) Error() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Chrome.Error))
}

func (s Style) Navbar() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Theme.Base.Foreground)).
		Background(lipgloss.Color(s.Theme.Chrome.Navbar)).
		Padding(0, 2)
}

// ListTab styles one row of the team or channel list.
func (s Style) ListTab(selected bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Theme.Chrome.ListTab)).Padding(0, 1)
	if selected {
		st = st.Foreground(lipgloss.Color(s.Theme.Chrome.SelectedItem)).Bold(true)
	}
	return st
}
