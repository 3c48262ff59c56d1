package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/conf-deck/internal/config"
	"github.com/asheshgoplani/conf-deck/internal/schedule"
	"github.com/asheshgoplani/conf-deck/internal/statedb"
)

// Table column widths for sessions output
const (
	tableColTime  = 13
	tableColTitle = 38
	tableColTrack = 14
	tableColRoom  = 16
)

// normalizeArgs reorders args so flags come before positional arguments.
// Go's flag package stops parsing at the first non-flag argument, which
// means "bookmarks add abc --json" silently ignores --json. This moves all
// flags to the front so they get parsed correctly.
func normalizeArgs(fs *flag.FlagSet, args []string) []string {
	boolFlags := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) {
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			boolFlags[f.Name] = true
		}
	})

	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" terminates flag processing
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "-") && arg != "-" {
			flags = append(flags, arg)

			name := strings.TrimLeft(arg, "-")

			// --flag=value carries its value, nothing to move
			if strings.Contains(name, "=") {
				continue
			}

			if !boolFlags[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

// padCell truncates or pads a table cell to the given display width,
// counting wide runes correctly.
func padCell(s string, width int) string {
	s = runewidth.Truncate(s, width, "…")
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

// openState loads config, opens storage, and builds a seeded engine for
// CLI commands. The caller must Close the returned db.
func openState() (*config.Config, *schedule.Engine, *statedb.StateDB) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	engine, db, err := buildEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, engine, db
}

// sessionSlot formats the start/end slot in the engine's display zone.
func sessionSlot(s *schedule.Session, e *schedule.Engine) string {
	loc := e.Location()
	return s.SlotStart.In(loc).Format("15:04") + "-" + s.SlotEnd.In(loc).Format("15:04")
}
