package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	dark "github.com/thiagokokada/dark-mode-go"
)

// Theme represents the current color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

// Dark Theme - Tokyo Night
var darkColors = struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Green, Yellow, Red, Cyan   lipgloss.Color
}{
	Bg:      lipgloss.Color("#1a1b26"),
	Surface: lipgloss.Color("#24283b"),
	Border:  lipgloss.Color("#414868"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#787fa0"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Green:   lipgloss.Color("#9ece6a"),
	Yellow:  lipgloss.Color("#e0af68"),
	Red:     lipgloss.Color("#f7768e"),
	Cyan:    lipgloss.Color("#7dcfff"),
}

// Light Theme - Tokyo Night Light variant
var lightColors = struct {
	Bg, Surface, Border, Text, TextDim lipgloss.Color
	Accent, Green, Yellow, Red, Cyan   lipgloss.Color
}{
	Bg:      lipgloss.Color("#d5d6db"),
	Surface: lipgloss.Color("#e9e9ec"),
	Border:  lipgloss.Color("#9699a3"),
	Text:    lipgloss.Color("#343b58"),
	TextDim: lipgloss.Color("#6a6d7c"),
	Accent:  lipgloss.Color("#34548a"),
	Green:   lipgloss.Color("#485e30"),
	Yellow:  lipgloss.Color("#8f5e15"),
	Red:     lipgloss.Color("#8c4351"),
	Cyan:    lipgloss.Color("#166775"),
}

// Active color variables (set by InitTheme)
var (
	ColorBg      lipgloss.Color
	ColorSurface lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorRed     lipgloss.Color
	ColorCyan    lipgloss.Color
)

// Styles rebuilt by InitTheme
var (
	titleStyle     lipgloss.Style
	dayHeaderStyle lipgloss.Style
	rowStyle       lipgloss.Style
	selectedStyle  lipgloss.Style
	dimStyle       lipgloss.Style
	liveBadgeStyle lipgloss.Style
	markStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	statusBarStyle lipgloss.Style
	filterBarStyle lipgloss.Style
	overlayStyle   lipgloss.Style
)

// themeMu protects the global color/style variables during live switches.
var themeMu sync.RWMutex

// ResolveTheme resolves a configured theme name to "dark" or "light".
// "system" detects the OS setting, falling back to dark.
func ResolveTheme(theme string) string {
	if theme != "system" {
		if theme == "light" {
			return "light"
		}
		return "dark"
	}
	isDark, err := dark.IsDarkMode()
	if err != nil || isDark {
		return "dark"
	}
	return "light"
}

// InitTheme sets the active palette. Must be called before any rendering.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	colors := darkColors
	currentTheme = ThemeDark
	if theme == "light" {
		colors = lightColors
		currentTheme = ThemeLight
	}

	ColorBg = colors.Bg
	ColorSurface = colors.Surface
	ColorBorder = colors.Border
	ColorText = colors.Text
	ColorTextDim = colors.TextDim
	ColorAccent = colors.Accent
	ColorGreen = colors.Green
	ColorYellow = colors.Yellow
	ColorRed = colors.Red
	ColorCyan = colors.Cyan

	titleStyle = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Padding(0, 1)

	dayHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorCyan).
		Bold(true).
		Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorAccent).
		Padding(0, 2)

	dimStyle = lipgloss.NewStyle().
		Foreground(ColorTextDim)

	liveBadgeStyle = lipgloss.NewStyle().
		Foreground(ColorGreen).
		Bold(true)

	markStyle = lipgloss.NewStyle().
		Foreground(ColorYellow)

	errorStyle = lipgloss.NewStyle().
		Foreground(ColorRed)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Padding(0, 1)

	filterBarStyle = lipgloss.NewStyle().
		Foreground(ColorYellow).
		Padding(0, 1)

	overlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(1, 2)
}

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}
