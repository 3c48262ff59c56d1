package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/asheshgoplani/conf-deck/internal/config"
	"github.com/asheshgoplani/conf-deck/internal/notify"
)

// handleBookmarks dispatches bookmark subcommands: list, add, remove.
func handleBookmarks(args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list", "ls":
		bookmarksList(args[1:])
	case "add":
		bookmarksMutate(args[1:], true)
	case "remove", "rm":
		bookmarksMutate(args[1:], false)
	default:
		fmt.Fprintf(os.Stderr, "Unknown bookmarks command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: conf-deck bookmarks [list|add <id>|remove <id>]")
		os.Exit(1)
	}
}

func bookmarksList(args []string) {
	fs := flag.NewFlagSet("bookmarks list", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Parse(normalizeArgs(fs, args))

	_, engine, db := openState()
	defer db.Close()
	defer engine.Close()

	marked := engine.Store().BookmarkedSessions()

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(marked)
		return
	}

	if len(marked) == 0 {
		fmt.Println("No bookmarks.")
		return
	}
	for i := range marked {
		s := &marked[i]
		fmt.Printf("%s  %s %s\n",
			padCell(s.ID, 12),
			padCell(sessionSlot(s, engine), tableColTime),
			s.Title)
	}
}

func bookmarksMutate(args []string, add bool) {
	fs := flag.NewFlagSet("bookmarks mutate", flag.ExitOnError)
	fs.Parse(normalizeArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: session id required")
		os.Exit(1)
	}
	id := fs.Arg(0)

	_, engine, db := openState()
	defer db.Close()
	defer engine.Close()

	store := engine.Store()
	if add {
		if _, ok := store.Session(id); !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown session id %q\n", id)
			os.Exit(1)
		}
		if store.IsBookmarked(id) {
			fmt.Println("Already bookmarked.")
			return
		}
		store.ToggleBookmark(id)
	} else {
		if !store.IsBookmarked(id) {
			fmt.Println("Not bookmarked.")
			return
		}
		store.ToggleBookmark(id)
	}

	if err := db.SaveBookmarks(store.Bookmarks()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if add {
		fmt.Printf("Bookmarked %s\n", id)
	} else {
		fmt.Printf("Removed bookmark %s\n", id)
	}
}

// handleSubscribe registers a web push subscription from a JSON file (or
// stdin with "-"). The file holds the standard PushSubscription shape.
func handleSubscribe(args []string) {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	fs.Parse(normalizeArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: conf-deck subscribe <subscription.json>")
		os.Exit(1)
	}

	var data []byte
	var err error
	if fs.Arg(0) == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var sub notify.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid subscription JSON: %v\n", err)
		os.Exit(1)
	}

	dir, err := config.Dir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := notify.NewSubscriptionStore(dir).Upsert(sub); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Subscription registered.")
}
