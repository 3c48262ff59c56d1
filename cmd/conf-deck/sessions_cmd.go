package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/asheshgoplani/conf-deck/internal/fetch"
	"github.com/asheshgoplani/conf-deck/internal/schedule"
)

// handleRefresh fetches the schedule, applies it, and prints the diff.
func handleRefresh(args []string) {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output stats as JSON")
	fs.Parse(normalizeArgs(fs, args))

	cfg, engine, db := openState()
	defer db.Close()
	defer engine.Close()

	var result *fetch.Result
	var err error
	switch {
	case cfg.Schedule.File != "":
		result, err = fetch.FromFile(cfg.Schedule.File)
	case cfg.Schedule.URL != "":
		client := fetch.NewClient(cfg.Schedule.URL)
		if _, etag, _, ok := db.LoadScheduleCache(); ok {
			client.SetETag(etag)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err = client.Fetch(ctx)
	default:
		fmt.Fprintln(os.Stderr, "Error: no schedule source configured. Set schedule.url or schedule.file in config.toml.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if result.NotModified {
		fmt.Println("Schedule unchanged (not modified)")
		return
	}

	stats, ok := engine.ApplyDataset(result.Sessions)
	if len(result.Payload) > 0 {
		if err := db.SaveScheduleCache(result.Payload, result.ETag); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache save failed: %v\n", err)
		}
	}

	if *jsonOut {
		out := map[string]any{
			"sessions": len(result.Sessions),
			"diff":     nil,
		}
		if ok {
			out["diff"] = stats
		}
		json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	if !ok {
		fmt.Printf("Loaded %d sessions\n", len(result.Sessions))
		return
	}
	fmt.Printf("Refreshed: %d added, %d modified, %d unchanged, %d removed\n",
		stats.Added, stats.Modified, stats.Unchanged, stats.Removed)
}

// handleSessions prints the session table, honoring the same filter
// pipeline as the TUI.
func handleSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	day := fs.String("day", schedule.FilterAll, "Filter by day label")
	track := fs.String("track", schedule.FilterAll, "Filter by track")
	room := fs.String("room", schedule.FilterAll, "Filter by room")
	search := fs.String("search", "", "Search term")
	marked := fs.Bool("marked", false, "Only bookmarked sessions")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(normalizeArgs(fs, args))

	_, engine, db := openState()
	defer db.Close()
	defer engine.Close()

	state := schedule.NewFilterState()
	state.SearchTerm = *search
	state.Day = *day
	state.Track = *track
	state.Room = *room
	engine.SetFilter(state)

	sessions := engine.Visible()
	if *marked {
		var kept []schedule.Session
		for _, s := range sessions {
			if engine.Store().IsBookmarked(s.ID) {
				kept = append(kept, s)
			}
		}
		sessions = kept
	}

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(sessions)
		return
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions. Run 'conf-deck refresh' to fetch the schedule.")
		return
	}

	grouped := schedule.Group(sessions, time.Now(), engine.Location())
	for _, dayGroup := range grouped.Days {
		fmt.Println(dayGroup.Label)
		for i := range dayGroup.Sessions {
			s := &dayGroup.Sessions[i]
			mark := " "
			if engine.Store().IsBookmarked(s.ID) {
				mark = "*"
			}
			fmt.Printf("  %s %s %s %s %s\n",
				mark,
				padCell(sessionSlot(s, engine), tableColTime),
				padCell(s.Title, tableColTitle),
				padCell(s.Track, tableColTrack),
				padCell(s.RoomName(), tableColRoom))
		}
	}
}
