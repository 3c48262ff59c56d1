package schedule

// UpdateStats classifies one refreshed dataset against the previously held
// one. Recomputed fully on every refresh, never accumulated.
type UpdateStats struct {
	Added     int
	Modified  int
	Unchanged int
	Removed   int
}

// Changed reports whether the refresh altered the dataset at all.
func (u UpdateStats) Changed() bool {
	return u.Added > 0 || u.Modified > 0 || u.Removed > 0
}

// Diff compares a fresh dataset against the previous one. ok is false when
// old is empty: the first load is not a "change" and produces no stats.
//
// Each new session is classified by id presence and then by deep structural
// equality (see Session.Equal). Sessions that disappeared upstream are
// counted as Removed.
func Diff(old, new []Session) (stats UpdateStats, ok bool) {
	if len(old) == 0 {
		return UpdateStats{}, false
	}

	prev := make(map[string]*Session, len(old))
	for i := range old {
		prev[old[i].ID] = &old[i]
	}

	seen := make(map[string]struct{}, len(new))
	for i := range new {
		s := &new[i]
		seen[s.ID] = struct{}{}
		before, exists := prev[s.ID]
		switch {
		case !exists:
			stats.Added++
		case !s.Equal(before):
			stats.Modified++
		default:
			stats.Unchanged++
		}
	}

	for id := range prev {
		if _, still := seen[id]; !still {
			stats.Removed++
		}
	}

	return stats, true
}
