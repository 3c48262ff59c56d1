package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/conf-deck/internal/config"
	"github.com/asheshgoplani/conf-deck/internal/fetch"
	"github.com/asheshgoplani/conf-deck/internal/logging"
	"github.com/asheshgoplani/conf-deck/internal/notify"
	"github.com/asheshgoplani/conf-deck/internal/schedule"
	"github.com/asheshgoplani/conf-deck/internal/statedb"
)

var uiLog = logging.ForComponent(logging.CompUI)

// Version is set by main.go.
var Version = "0.0.0"

// SetVersion sets the version shown in the title bar.
func SetVersion(v string) {
	Version = v
}

const (
	// tickInterval drives the live markers and the reminder sweep.
	tickInterval = 30 * time.Second

	// errDisplayDuration is how long transient errors stay in the status bar.
	errDisplayDuration = 8 * time.Second

	// Minimum terminal size before we give up rendering the list.
	minTerminalWidth  = 40
	minTerminalHeight = 10
)

// rowKind discriminates the flattened list rows.
type rowKind int

const (
	rowDayHeader rowKind = iota
	rowSession
)

// row is one line of the flattened schedule list: either a day header or a
// session. Flattening keeps cursor movement and scrolling trivial.
type row struct {
	kind    rowKind
	label   string // day header text
	session schedule.Session
	live    bool
}

// Messages delivered to Update.
type tickMsg time.Time

type fetchDoneMsg struct {
	result *fetch.Result
	err    error
}

type fileChangedMsg struct{}

type liveUpdateMsg struct{}

type storageReloadMsg struct{}

type themeChangedMsg struct{ isDark bool }

type remindersSentMsg struct{ count int }

// Home is the main application model.
type Home struct {
	width  int
	height int

	cfg     *config.Config
	engine  *schedule.Engine
	db      *statedb.StateDB
	fetcher *fetch.Client

	// Optional background sources, each nil when not configured.
	storageWatcher *StorageWatcher
	themeWatcher   *ThemeWatcher
	fileWatcher    *fetch.FileWatcher
	live           *fetch.LiveListener
	reminder       *notify.Reminder

	search *Search
	picker *QuickJump

	mode       schedule.Mode
	rows       []row
	cursor     int
	viewOffset int
	hasLive    bool

	refreshing bool
	statusMsg  string
	err        error
	errTime    time.Time

	now time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// HomeOptions carries the wired dependencies into NewHome. Every field but
// Config, Engine, and DB may be nil.
type HomeOptions struct {
	Config         *config.Config
	Engine         *schedule.Engine
	DB             *statedb.StateDB
	Fetcher        *fetch.Client
	FileWatcher    *fetch.FileWatcher
	Live           *fetch.LiveListener
	Reminder       *notify.Reminder
	StorageWatcher *StorageWatcher
	ThemeWatcher   *ThemeWatcher
}

// NewHome creates the main model.
func NewHome(opts HomeOptions) *Home {
	ctx, cancel := context.WithCancel(context.Background())

	debounce := time.Duration(opts.Config.Search.DebounceMS) * time.Millisecond

	return &Home{
		ctx:            ctx,
		cancel:         cancel,
		cfg:            opts.Config,
		engine:         opts.Engine,
		db:             opts.DB,
		fetcher:        opts.Fetcher,
		fileWatcher:    opts.FileWatcher,
		live:           opts.Live,
		reminder:       opts.Reminder,
		storageWatcher: opts.StorageWatcher,
		themeWatcher:   opts.ThemeWatcher,
		search:         NewSearch(debounce),
		picker:         NewQuickJump(),
		mode:           schedule.ModeSchedule,
		now:            time.Now(),
	}
}

// Init starts the background sources and kicks off the first refresh.
func (h *Home) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}

	if h.fetcher != nil || h.cfg.Schedule.File != "" {
		cmds = append(cmds, h.refreshCmd())
	}
	if interval := h.cfg.Schedule.RefreshIntervalMinutes; interval > 0 && h.fetcher != nil {
		cmds = append(cmds, refreshTickCmd(time.Duration(interval)*time.Minute))
	}
	if h.fileWatcher != nil {
		cmds = append(cmds, waitSignal(h.fileWatcher.ReloadChannel(), func() tea.Msg { return fileChangedMsg{} }))
	}
	if h.live != nil {
		cmds = append(cmds, waitSignal(h.live.UpdateChannel(), func() tea.Msg { return liveUpdateMsg{} }))
	}
	if h.storageWatcher != nil {
		h.storageWatcher.Start()
		cmds = append(cmds, waitSignal(h.storageWatcher.ReloadChannel(), func() tea.Msg { return storageReloadMsg{} }))
	}
	if h.themeWatcher != nil {
		cmds = append(cmds, waitTheme(h.themeWatcher.ChangeChannel()))
	}

	h.rebuildRows()
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshTickMsg fires the periodic refetch.
type refreshTickMsg struct{ interval time.Duration }

func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return refreshTickMsg{interval: interval}
	})
}

// waitSignal turns a struct{} channel into a recurring tea message source.
func waitSignal(ch <-chan struct{}, msg func() tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg()
	}
}

func waitTheme(ch <-chan bool) tea.Cmd {
	return func() tea.Msg {
		isDark, ok := <-ch
		if !ok {
			return nil
		}
		return themeChangedMsg{isDark: isDark}
	}
}

// refreshCmd fetches the schedule off the event loop. Nil when no source
// is configured.
func (h *Home) refreshCmd() tea.Cmd {
	ctx := h.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if h.fetcher == nil && h.cfg.Schedule.File == "" {
		return nil
	}
	if h.cfg.Schedule.File != "" {
		path := h.cfg.Schedule.File
		return func() tea.Msg {
			result, err := fetch.FromFile(path)
			return fetchDoneMsg{result: result, err: err}
		}
	}
	fetcher := h.fetcher
	return func() tea.Msg {
		result, err := fetcher.Fetch(ctx)
		return fetchDoneMsg{result: result, err: err}
	}
}

// Update is the bubbletea message loop.
func (h *Home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
		h.picker.SetWidth(msg.Width)
		h.clampScroll()
		return h, nil

	case tea.KeyMsg:
		return h.handleKey(msg)

	case tickMsg:
		h.now = time.Time(msg)
		h.pruneError()
		h.rebuildRows()
		cmds := []tea.Cmd{tickCmd()}
		if cmd := h.sweepReminders(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return h, tea.Batch(cmds...)

	case refreshTickMsg:
		return h, tea.Batch(h.refreshCmd(), refreshTickCmd(msg.interval))

	case fetchDoneMsg:
		return h, h.applyFetch(msg)

	case fileChangedMsg:
		uiLog.Debug("schedule_file_changed")
		h.refreshing = true
		return h, tea.Batch(
			h.refreshCmd(),
			waitSignal(h.fileWatcher.ReloadChannel(), func() tea.Msg { return fileChangedMsg{} }),
		)

	case liveUpdateMsg:
		uiLog.Debug("live_update_received")
		h.refreshing = true
		return h, tea.Batch(
			h.refreshCmd(),
			waitSignal(h.live.UpdateChannel(), func() tea.Msg { return liveUpdateMsg{} }),
		)

	case storageReloadMsg:
		// Bookmarks changed externally (CLI while the TUI runs).
		h.engine.Store().SetBookmarks(h.db.LoadBookmarks())
		h.rebuildRows()
		h.statusMsg = "Bookmarks reloaded"
		return h, waitSignal(h.storageWatcher.ReloadChannel(), func() tea.Msg { return storageReloadMsg{} })

	case themeChangedMsg:
		if msg.isDark {
			InitTheme("dark")
		} else {
			InitTheme("light")
		}
		return h, waitTheme(h.themeWatcher.ChangeChannel())

	case searchDebounceMsg:
		// Stale ticks from earlier keystrokes fall through.
		if !h.search.Matches(msg) {
			return h, nil
		}
		state := h.engine.Filter()
		state.SearchTerm = msg.query
		h.engine.SetFilter(state)
		h.cursor = 0
		h.viewOffset = 0
		h.rebuildRows()
		return h, nil

	case remindersSentMsg:
		if msg.count > 0 {
			h.statusMsg = fmt.Sprintf("Sent %d reminder(s)", msg.count)
		}
		return h, nil
	}

	return h, nil
}

func (h *Home) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if h.picker.Visible() {
		chosen, done := h.picker.Update(msg)
		if done && chosen != nil {
			h.jumpTo(chosen.ID)
		}
		return h, nil
	}

	if h.search.Active() {
		switch msg.String() {
		case "esc":
			h.search.Clear()
			state := h.engine.Filter()
			state.SearchTerm = ""
			h.engine.SetFilter(state)
			h.rebuildRows()
			return h, nil
		case "enter":
			h.search.Deactivate()
			return h, nil
		default:
			return h, h.search.Update(msg)
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		h.persistBookmarks()
		h.shutdown()
		return h, tea.Quit

	case "tab":
		if h.mode == schedule.ModeSchedule {
			h.mode = schedule.ModeBookmarks
		} else {
			h.mode = schedule.ModeSchedule
		}
		h.cursor = 0
		h.viewOffset = 0
		h.rebuildRows()
		return h, nil

	case "up", "k":
		h.moveCursor(-1)
		return h, nil

	case "down", "j":
		h.moveCursor(1)
		return h, nil

	case "b", " ":
		if s := h.selectedSession(); s != nil {
			marked := h.engine.ToggleBookmark(s.ID)
			h.persistBookmarks()
			if marked {
				h.statusMsg = "Bookmarked: " + s.Title
			} else {
				h.statusMsg = "Removed bookmark: " + s.Title
			}
			h.rebuildRows()
		}
		return h, nil

	case "r":
		if cmd := h.refreshCmd(); cmd != nil {
			h.refreshing = true
			h.statusMsg = "Refreshing..."
			return h, cmd
		}
		h.statusMsg = "No schedule source configured"
		return h, nil

	case "/":
		h.search.Activate()
		return h, nil

	case "g":
		h.picker.Show(h.engine.Store().Sessions())
		return h, nil

	case "d":
		h.cycleFilter(h.engine.Days(), func(f *schedule.FilterState) *string { return &f.Day })
		return h, nil

	case "t":
		h.cycleFilter(h.engine.Tracks(), func(f *schedule.FilterState) *string { return &f.Track })
		return h, nil

	case "o":
		h.cycleFilter(h.engine.Rooms(), func(f *schedule.FilterState) *string { return &f.Room })
		return h, nil

	case "esc":
		h.search.Clear()
		h.engine.ResetFilters()
		h.cursor = 0
		h.viewOffset = 0
		h.rebuildRows()
		return h, nil
	}

	return h, nil
}

// cycleFilter advances one selector through all -> v1 -> v2 -> ... -> all.
func (h *Home) cycleFilter(values []string, field func(*schedule.FilterState) *string) {
	state := h.engine.Filter()
	cur := *field(&state)

	next := schedule.FilterAll
	if cur == schedule.FilterAll {
		if len(values) > 0 {
			next = values[0]
		}
	} else {
		for i, v := range values {
			if v == cur && i+1 < len(values) {
				next = values[i+1]
				break
			}
		}
	}

	*field(&state) = next
	h.engine.SetFilter(state)
	h.cursor = 0
	h.viewOffset = 0
	h.rebuildRows()
}

// applyFetch installs a completed fetch and persists the payload cache.
func (h *Home) applyFetch(msg fetchDoneMsg) tea.Cmd {
	h.refreshing = false

	if msg.err != nil {
		h.setError(msg.err)
		return nil
	}
	if msg.result.NotModified {
		h.statusMsg = "Schedule unchanged"
		return nil
	}

	stats, ok := h.engine.ApplyDataset(msg.result.Sessions)
	if ok && stats.Changed() {
		h.statusMsg = fmt.Sprintf("Updated: %d added, %d modified, %d removed",
			stats.Added, stats.Modified, stats.Removed)
	} else if ok {
		h.statusMsg = "Schedule unchanged"
	} else {
		h.statusMsg = fmt.Sprintf("Loaded %d sessions", len(msg.result.Sessions))
	}

	if h.db != nil && len(msg.result.Payload) > 0 {
		if h.storageWatcher != nil {
			h.storageWatcher.NotifySave()
		}
		if err := h.db.SaveScheduleCache(msg.result.Payload, msg.result.ETag); err != nil {
			uiLog.Warn("schedule_cache_save_failed", slog.String("error", err.Error()))
		}
	}

	h.rebuildRows()
	return nil
}

// sweepReminders sends due web push reminders in the background.
func (h *Home) sweepReminders() tea.Cmd {
	if h.reminder == nil {
		return nil
	}
	due := h.reminder.Due(h.now, h.engine.Store().Sessions(), h.engine.Store().Bookmarks())
	if len(due) == 0 {
		return nil
	}
	r := h.reminder
	return func() tea.Msg {
		for _, s := range due {
			r.Send(s)
		}
		return remindersSentMsg{count: len(due)}
	}
}

func (h *Home) persistBookmarks() {
	if h.db == nil {
		return
	}
	if h.storageWatcher != nil {
		h.storageWatcher.NotifySave()
	}
	if err := h.db.SaveBookmarks(h.engine.Store().Bookmarks()); err != nil {
		uiLog.Warn("bookmark_save_failed", slog.String("error", err.Error()))
		h.setError(err)
	}
}

func (h *Home) shutdown() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.fileWatcher != nil {
		h.fileWatcher.Close()
	}
	if h.live != nil {
		h.live.Close()
	}
	if h.storageWatcher != nil {
		h.storageWatcher.Close()
	}
	if h.themeWatcher != nil {
		h.themeWatcher.Close()
	}
	h.engine.Close()
}

func (h *Home) setError(err error) {
	h.err = err
	h.errTime = time.Now()
	uiLog.Error("ui_error", slog.String("error", err.Error()))
}

func (h *Home) pruneError() {
	if h.err != nil && time.Since(h.errTime) > errDisplayDuration {
		h.err = nil
	}
}

// rebuildRows flattens the current day groups into the cursor list.
func (h *Home) rebuildRows() {
	grouped := h.engine.Groups(h.mode, h.now)
	h.hasLive = grouped.HasLive

	rows := make([]row, 0, len(grouped.Days)*4)
	for _, day := range grouped.Days {
		rows = append(rows, row{kind: rowDayHeader, label: day.Label})
		for _, s := range day.Sessions {
			rows = append(rows, row{
				kind:    rowSession,
				session: s,
				live:    s.Live(h.now),
			})
		}
	}
	h.rows = rows

	if h.cursor >= len(rows) {
		h.cursor = len(rows) - 1
	}
	if h.cursor < 0 {
		h.cursor = 0
	}
	// Never leave the cursor on a header
	if h.cursor < len(rows) && rows[h.cursor].kind == rowDayHeader {
		h.moveCursor(1)
	}
	h.clampScroll()
}

// moveCursor steps over day headers in the given direction.
func (h *Home) moveCursor(delta int) {
	i := h.cursor + delta
	for i >= 0 && i < len(h.rows) && h.rows[i].kind == rowDayHeader {
		i += delta
	}
	if i >= 0 && i < len(h.rows) {
		h.cursor = i
	}
	h.clampScroll()
}

// jumpTo places the cursor on the session with the given id, clearing
// filters if it is currently hidden.
func (h *Home) jumpTo(id string) {
	find := func() int {
		for i, r := range h.rows {
			if r.kind == rowSession && r.session.ID == id {
				return i
			}
		}
		return -1
	}

	if i := find(); i >= 0 {
		h.cursor = i
		h.clampScroll()
		return
	}

	h.search.Clear()
	h.engine.ResetFilters()
	h.mode = schedule.ModeSchedule
	h.rebuildRows()
	if i := find(); i >= 0 {
		h.cursor = i
		h.clampScroll()
	}
}

func (h *Home) selectedSession() *schedule.Session {
	if h.cursor < 0 || h.cursor >= len(h.rows) {
		return nil
	}
	r := h.rows[h.cursor]
	if r.kind != rowSession {
		return nil
	}
	return &r.session
}

func (h *Home) listHeight() int {
	// Title, filter bar, search line, status bar
	reserved := 4
	if hgt := h.height - reserved; hgt > 0 {
		return hgt
	}
	return 1
}

func (h *Home) clampScroll() {
	visible := h.listHeight()
	if h.cursor < h.viewOffset {
		h.viewOffset = h.cursor
	}
	if h.cursor >= h.viewOffset+visible {
		h.viewOffset = h.cursor - visible + 1
	}
	if h.viewOffset < 0 {
		h.viewOffset = 0
	}
}

// View renders the full screen.
func (h *Home) View() string {
	if h.width < minTerminalWidth || h.height < minTerminalHeight {
		return dimStyle.Render(fmt.Sprintf("Terminal too small (need %dx%d)",
			minTerminalWidth, minTerminalHeight))
	}

	var b strings.Builder
	b.WriteString(h.renderTitle())
	b.WriteString("\n")
	b.WriteString(h.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(h.renderList())
	b.WriteString("\n")
	b.WriteString(h.renderStatusBar())

	if h.picker.Visible() {
		return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, h.picker.View())
	}
	return b.String()
}

func (h *Home) renderTitle() string {
	scheduleTab := "Schedule"
	bookmarksTab := "Bookmarks"
	if h.mode == schedule.ModeSchedule {
		scheduleTab = "[" + scheduleTab + "]"
	} else {
		bookmarksTab = "[" + bookmarksTab + "]"
	}

	title := titleStyle.Render(fmt.Sprintf("conf-deck %s", Version))
	tabs := dimStyle.Render(scheduleTab + "  " + bookmarksTab)
	live := ""
	if h.hasLive {
		live = "  " + liveBadgeStyle.Render("● LIVE")
	}
	return title + "  " + tabs + live
}

func (h *Home) renderFilterBar() string {
	f := h.engine.Filter()
	parts := []string{
		"day: " + f.Day,
		"track: " + f.Track,
		"room: " + f.Room,
	}
	bar := filterBarStyle.Render(strings.Join(parts, "  "))
	if s := h.search.View(); s != "" {
		return bar + "  " + s
	}
	return bar
}

func (h *Home) renderList() string {
	visible := h.listHeight()
	var b strings.Builder

	if len(h.rows) == 0 {
		if h.mode == schedule.ModeBookmarks {
			b.WriteString(dimStyle.Render("  No bookmarks yet. Press b on a session to add one."))
		} else if h.refreshing {
			b.WriteString(dimStyle.Render("  Loading schedule..."))
		} else {
			b.WriteString(dimStyle.Render("  No sessions match the current filters."))
		}
		// Pad remaining lines so the status bar stays put
		for i := 1; i < visible; i++ {
			b.WriteString("\n")
		}
		return b.String()
	}

	end := h.viewOffset + visible
	if end > len(h.rows) {
		end = len(h.rows)
	}

	for i := h.viewOffset; i < end; i++ {
		r := h.rows[i]
		if r.kind == rowDayHeader {
			b.WriteString(dayHeaderStyle.Render(r.label))
		} else {
			b.WriteString(h.renderSessionRow(r, i == h.cursor))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	for i := end - h.viewOffset; i < visible; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (h *Home) renderSessionRow(r row, selected bool) string {
	s := r.session

	mark := "  "
	if h.engine.Store().IsBookmarked(s.ID) {
		mark = markStyle.Render("★ ")
	}

	slot := s.SlotStart.In(h.engine.Location()).Format("15:04")
	line := fmt.Sprintf("%s %s  %s", slot, mark, s.Title)
	if room := s.RoomName(); room != "" {
		line += dimStyle.Render("  " + room)
	}
	if r.live {
		line += "  " + liveBadgeStyle.Render("●")
	}

	maxWidth := h.width - 4
	if maxWidth > 0 {
		line = runewidth.Truncate(line, maxWidth, "…")
	}

	if selected {
		return selectedStyle.Render(line)
	}
	return rowStyle.Render(line)
}

func (h *Home) renderStatusBar() string {
	if h.err != nil {
		return errorStyle.Render("Error: " + h.err.Error())
	}

	left := h.statusMsg
	if h.refreshing {
		left = "Refreshing..."
	}
	hints := dimStyle.Render("b:bookmark  /:search  d/t/o:filters  g:jump  tab:view  r:refresh  q:quit")
	if left == "" {
		return statusBarStyle.Render(hints)
	}
	return statusBarStyle.Render(left) + "  " + hints
}
