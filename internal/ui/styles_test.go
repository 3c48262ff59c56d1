package ui

import "testing"

func TestResolveThemeExplicit(t *testing.T) {
	if got := ResolveTheme("light"); got != "light" {
		t.Errorf("Expected light, got %s", got)
	}
	if got := ResolveTheme("dark"); got != "dark" {
		t.Errorf("Expected dark, got %s", got)
	}
	// Unknown names fall back to dark
	if got := ResolveTheme("solarized"); got != "dark" {
		t.Errorf("Expected dark fallback, got %s", got)
	}
}

func TestInitThemeSwitchesPalette(t *testing.T) {
	InitTheme("light")
	lightBg := ColorBg

	InitTheme("dark")
	if ColorBg == lightBg {
		t.Error("Dark and light palettes must differ")
	}
	if CurrentTheme() != ThemeDark {
		t.Errorf("Expected dark theme active, got %s", CurrentTheme())
	}
}
