package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// searchDebounceMsg fires after the debounce interval elapses.
type searchDebounceMsg struct {
	query string // The query this tick was scheduled for
}

// Search is the incremental search input shown above the session list.
// Keystrokes are coalesced with tea.Tick: each edit schedules a debounce
// message carrying the query at edit time, and Home only applies a message
// whose query still matches the input. Stale ticks fall through.
type Search struct {
	input    textinput.Model
	active   bool
	debounce time.Duration
}

// NewSearch creates the search component with the given debounce window.
func NewSearch(debounce time.Duration) *Search {
	ti := textinput.New()
	ti.Placeholder = "Search title, speaker, track..."
	ti.CharLimit = 80
	ti.Width = 40

	return &Search{
		input:    ti,
		debounce: debounce,
	}
}

// Active reports whether the input currently captures keystrokes.
func (s *Search) Active() bool {
	return s.active
}

// Value returns the current query text.
func (s *Search) Value() string {
	return s.input.Value()
}

// Activate focuses the input, keeping any previous query.
func (s *Search) Activate() {
	s.active = true
	s.input.Focus()
}

// Deactivate blurs the input but keeps the query applied.
func (s *Search) Deactivate() {
	s.active = false
	s.input.Blur()
}

// Clear wipes the query and blurs the input.
func (s *Search) Clear() {
	s.active = false
	s.input.SetValue("")
	s.input.Blur()
}

// Update feeds a key message into the input and schedules a debounced
// apply for the resulting query.
func (s *Search) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	query := s.input.Value()
	debounceCmd := tea.Tick(s.debounce, func(t time.Time) tea.Msg {
		return searchDebounceMsg{query: query}
	})
	return tea.Batch(cmd, debounceCmd)
}

// Matches reports whether a debounce message is still current. A stale
// message (the user kept typing after it was scheduled) must be dropped.
func (s *Search) Matches(msg searchDebounceMsg) bool {
	return msg.query == s.input.Value()
}

// View renders the input line with the active-state prompt.
func (s *Search) View() string {
	prompt := "/"
	if s.active {
		return filterBarStyle.Render(prompt + " " + s.input.View())
	}
	if s.input.Value() != "" {
		return filterBarStyle.Render(prompt + " " + s.input.Value())
	}
	return ""
}
