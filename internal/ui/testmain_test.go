package ui

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Styles must be initialized before any View() call.
	InitTheme("dark")
	os.Exit(m.Run())
}
