package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/asheshgoplani/conf-deck/internal/config"
	"github.com/asheshgoplani/conf-deck/internal/fetch"
	"github.com/asheshgoplani/conf-deck/internal/logging"
	"github.com/asheshgoplani/conf-deck/internal/notify"
	"github.com/asheshgoplani/conf-deck/internal/schedule"
	"github.com/asheshgoplani/conf-deck/internal/statedb"
	"github.com/asheshgoplani/conf-deck/internal/ui"
)

const Version = "0.3.1"

// init sets up the color profile for consistent terminal colors.
func init() {
	initColorProfile()
}

// initColorProfile configures the lipgloss color profile based on terminal
// capabilities. Prefers TrueColor, falls back to ANSI256.
func initColorProfile() {
	// User override: CONFDECK_COLOR = truecolor, 256, 16, none
	if colorEnv := os.Getenv("CONFDECK_COLOR"); colorEnv != "" {
		switch strings.ToLower(colorEnv) {
		case "truecolor", "true", "24bit":
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		case "256", "ansi256":
			lipgloss.SetColorProfile(termenv.ANSI256)
			return
		case "16", "ansi", "basic":
			lipgloss.SetColorProfile(termenv.ANSI)
			return
		case "none", "off", "ascii":
			lipgloss.SetColorProfile(termenv.Ascii)
			return
		}
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}

	termName := os.Getenv("TERM")
	trueColorTerms := []string{
		"xterm-256color",
		"screen-256color",
		"tmux-256color",
		"xterm-direct",
		"alacritty",
		"kitty",
		"wezterm",
	}
	for _, t := range trueColorTerms {
		if strings.Contains(termName, t) || termName == t {
			lipgloss.SetColorProfile(termenv.TrueColor)
			return
		}
	}

	lipgloss.SetColorProfile(termenv.ANSI256)
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("conf-deck v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "refresh":
			handleRefresh(args[1:])
			return
		case "sessions", "ls":
			handleSessions(args[1:])
			return
		case "bookmarks", "bm":
			handleBookmarks(args[1:])
			return
		case "subscribe":
			handleSubscribe(args[1:])
			return
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: conf-deck needs a terminal. Use 'conf-deck sessions' for scripted output.")
		os.Exit(1)
	}

	cfg, cfgErr := config.Load()

	ui.SetVersion(Version)
	ui.InitTheme(ui.ResolveTheme(cfg.Theme))

	initLogging(cfg)
	defer logging.Shutdown()

	if cfgErr != nil {
		logging.ForComponent(logging.CompCLI).Warn("config_load_failed",
			slog.String("error", cfgErr.Error()))
	}

	engine, db, err := buildEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Graceful shutdown flushes the WAL
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		db.Close()
		os.Exit(0)
	}()

	opts := ui.HomeOptions{
		Config: cfg,
		Engine: engine,
		DB:     db,
	}

	if cfg.Schedule.File != "" {
		if fw, err := fetch.NewFileWatcher(cfg.Schedule.File); err == nil {
			opts.FileWatcher = fw
		} else {
			logging.ForComponent(logging.CompFetch).Warn("file_watch_failed",
				slog.String("error", err.Error()))
		}
	} else if cfg.Schedule.URL != "" {
		client := fetch.NewClient(cfg.Schedule.URL)
		if _, etag, _, ok := db.LoadScheduleCache(); ok {
			client.SetETag(etag)
		}
		opts.Fetcher = client
	}

	if cfg.Schedule.LiveURL != "" {
		opts.Live = fetch.NewLiveListener(cfg.Schedule.LiveURL)
	}

	if cfg.Notifications.Enabled {
		opts.Reminder = buildReminder(cfg)
	}

	if sw, err := ui.NewStorageWatcher(db); err == nil {
		opts.StorageWatcher = sw
	}

	if cfg.Theme == "system" {
		opts.ThemeWatcher = ui.NewThemeWatcher(context.Background())
	}

	p := tea.NewProgram(
		ui.NewHome(opts),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogging wires structured logging. Logs go to ~/.conf-deck/debug.log
// only when CONFDECK_DEBUG is set; otherwise they are discarded so slog
// output cannot corrupt the TUI.
func initLogging(cfg *config.Config) {
	baseDir, err := config.Dir()
	if err != nil {
		return
	}
	logging.Init(logging.Config{
		Debug:          os.Getenv("CONFDECK_DEBUG") != "",
		LogDir:         baseDir,
		Level:          cfg.Logs.Level,
		Format:         cfg.Logs.Format,
		MaxSizeMB:      cfg.Logs.MaxSizeMB,
		MaxBackups:     cfg.Logs.MaxBackups,
		MaxAgeDays:     10,
		Compress:       true,
		RingBufferSize: 1 << 20,
	})

	// SIGUSR1 dumps the ring buffer for post-mortem debugging
	usr1Chan := make(chan os.Signal, 1)
	signal.Notify(usr1Chan, syscall.SIGUSR1)
	go func() {
		for range usr1Chan {
			dumpPath := filepath.Join(baseDir, fmt.Sprintf("crash-dump-%d.jsonl", time.Now().Unix()))
			if err := logging.DumpRingBuffer(dumpPath); err != nil {
				logging.ForComponent(logging.CompCLI).Error("crash_dump_failed",
					slog.String("error", err.Error()))
			}
		}
	}()
}

// buildReminder assembles the web push reminder from persisted VAPID keys.
// Returns nil when key setup fails; reminders then stay off for the run.
func buildReminder(cfg *config.Config) *notify.Reminder {
	dir, err := config.Dir()
	if err != nil {
		return nil
	}
	pub, priv, err := notify.EnsureVAPIDKeys(dir, cfg.Notifications.Subject)
	if err != nil {
		logging.ForComponent(logging.CompNotify).Warn("vapid_setup_failed",
			slog.String("error", err.Error()))
		return nil
	}
	lead := time.Duration(cfg.Notifications.LeadMinutes) * time.Minute
	return notify.NewReminder(notify.NewSubscriptionStore(dir), lead, cfg.Notifications.Subject, pub, priv)
}

// buildEngine opens storage and seeds the engine with the cached schedule
// and persisted bookmarks. The cached dataset counts as the first load, so
// the next fetch produces a diff against what the user last saw.
func buildEngine(cfg *config.Config) (*schedule.Engine, *statedb.StateDB, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}

	db, err := statedb.Open(filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open state database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate state database: %w", err)
	}

	loc := time.Local
	if cfg.TimeZone != "" {
		if l, err := time.LoadLocation(cfg.TimeZone); err == nil {
			loc = l
		} else {
			logging.ForComponent(logging.CompCLI).Warn("bad_time_zone",
				slog.String("zone", cfg.TimeZone))
		}
	}

	debounce := time.Duration(cfg.Search.DebounceMS) * time.Millisecond
	engine := schedule.NewEngine(loc, debounce, schedule.RealClock())

	if payload, _, _, ok := db.LoadScheduleCache(); ok {
		if sessions, err := schedule.ParseSessions(payload); err == nil {
			engine.ApplyDataset(sessions)
		}
	}
	engine.Store().SetBookmarks(db.LoadBookmarks())

	return engine, db, nil
}

func printHelp() {
	fmt.Print(`conf-deck - conference schedule in your terminal

Usage:
  conf-deck                      Launch the TUI
  conf-deck refresh              Fetch the schedule and print what changed
  conf-deck sessions [flags]     List sessions (table output)
  conf-deck bookmarks <cmd>      Manage bookmarks: list, add <id>, remove <id>
  conf-deck subscribe <file>     Register a web push subscription (JSON)
  conf-deck version              Print the version

Sessions flags:
  -day <label>     Filter by day (e.g. "Mon Sep 7")
  -track <name>    Filter by track
  -room <name>     Filter by room
  -search <term>   Search title, description, track, speakers
  -marked          Only bookmarked sessions

Environment:
  CONFDECK_DEBUG   Write debug logs to ~/.conf-deck/debug.log
  CONFDECK_COLOR   Force color profile: truecolor, 256, 16, none
`)
}
