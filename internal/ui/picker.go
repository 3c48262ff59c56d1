package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/asheshgoplani/conf-deck/internal/schedule"
)

// pickerSource adapts the session list to fuzzy.Source, matching on the
// title with the speakers appended so "keynote smith" style queries work.
type pickerSource []schedule.Session

func (p pickerSource) String(i int) string {
	s := p[i]
	if len(s.Speakers) == 0 {
		return s.Title
	}
	names := make([]string, len(s.Speakers))
	for j, sp := range s.Speakers {
		names[j] = sp.Name
	}
	return s.Title + " " + strings.Join(names, " ")
}

func (p pickerSource) Len() int { return len(p) }

// QuickJump is the fuzzy session picker overlay. Unlike the incremental
// search filter it does not touch the filter pipeline: it jumps the cursor
// straight to the chosen session.
type QuickJump struct {
	input    textinput.Model
	sessions pickerSource
	matches  fuzzy.Matches
	cursor   int
	visible  bool
	width    int
}

// NewQuickJump creates a hidden picker.
func NewQuickJump() *QuickJump {
	ti := textinput.New()
	ti.Placeholder = "Jump to session..."
	ti.CharLimit = 80
	ti.Width = 50

	return &QuickJump{input: ti}
}

// Visible reports whether the overlay is shown.
func (q *QuickJump) Visible() bool {
	return q.visible
}

// Show opens the overlay over the given session list.
func (q *QuickJump) Show(sessions []schedule.Session) {
	q.sessions = pickerSource(sessions)
	q.matches = nil
	q.cursor = 0
	q.visible = true
	q.input.SetValue("")
	q.input.Focus()
}

// Hide closes the overlay.
func (q *QuickJump) Hide() {
	q.visible = false
	q.input.Blur()
}

// SetWidth sets the render width.
func (q *QuickJump) SetWidth(w int) {
	q.width = w
}

// Selected returns the session under the cursor, or nil when nothing
// matches.
func (q *QuickJump) Selected() *schedule.Session {
	if len(q.matches) == 0 || q.cursor >= len(q.matches) {
		return nil
	}
	s := q.sessions[q.matches[q.cursor].Index]
	return &s
}

// Update handles a key message. It returns the chosen session when the
// user confirms, and done=true when the overlay should close.
func (q *QuickJump) Update(msg tea.KeyMsg) (chosen *schedule.Session, done bool) {
	switch msg.String() {
	case "esc":
		q.Hide()
		return nil, true
	case "enter":
		chosen = q.Selected()
		q.Hide()
		return chosen, true
	case "up", "ctrl+p":
		if q.cursor > 0 {
			q.cursor--
		}
		return nil, false
	case "down", "ctrl+n":
		if q.cursor < len(q.matches)-1 {
			q.cursor++
		}
		return nil, false
	}

	q.input, _ = q.input.Update(msg)
	q.refilter()
	return nil, false
}

func (q *QuickJump) refilter() {
	query := q.input.Value()
	if query == "" {
		q.matches = nil
		q.cursor = 0
		return
	}
	q.matches = fuzzy.FindFrom(query, q.sessions)
	if q.cursor >= len(q.matches) {
		q.cursor = 0
	}
}

// maxPickerResults caps the rendered match list.
const maxPickerResults = 8

// View renders the overlay box.
func (q *QuickJump) View() string {
	if !q.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Jump to session"))
	b.WriteString("\n")
	b.WriteString(q.input.View())
	b.WriteString("\n\n")

	if len(q.matches) == 0 {
		if q.input.Value() == "" {
			b.WriteString(dimStyle.Render("Type to search by title or speaker"))
		} else {
			b.WriteString(dimStyle.Render("No matches"))
		}
	}

	for i, m := range q.matches {
		if i >= maxPickerResults {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(q.matches)-maxPickerResults)))
			break
		}
		line := q.sessions[m.Index].Title
		if i == q.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return overlayStyle.Render(b.String())
}
