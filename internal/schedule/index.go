package schedule

import (
	"strings"
)

// IndexedSession pairs a session with its derived searchable text. The text
// is regenerated wholesale with every dataset replacement, so it can never
// go stale relative to its session.
type IndexedSession struct {
	Session
	SearchText string
}

// BuildIndex derives the searchable text blob for every session. Pure:
// output length and order match the input. The blob is the lower-cased
// title, description, track, and speaker names, space-joined, enabling
// cheap substring search without touching individual fields.
func BuildIndex(sessions []Session) []IndexedSession {
	indexed := make([]IndexedSession, len(sessions))
	for i, s := range sessions {
		var b strings.Builder
		b.WriteString(strings.ToLower(s.Title))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(s.Description))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(s.Track))
		b.WriteByte(' ')
		for j, sp := range s.Speakers {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.ToLower(sp.Name))
		}
		indexed[i] = IndexedSession{Session: s, SearchText: b.String()}
	}
	return indexed
}
