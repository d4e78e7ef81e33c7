package board

import "strings"

// Normalize recomputes the derived counters from the item list.
// It is idempotent and also replaces nil slices with empty ones so that the
// JSON view always carries arrays.
func Normalize(s GameState) GameState {
	if s.HiddenItems == nil {
		s.HiddenItems = []HiddenItem{}
	}
	if s.History == nil {
		s.History = []HistoryEvent{}
	}
	s.Total = len(s.HiddenItems)
	s.Found = 0
	for _, it := range s.HiddenItems {
		if it.Found {
			s.Found++
		}
	}
	return s
}

// Mask returns the view of s a caller may see. Admins get an unmodified deep
// copy. Players get unfound item names replaced by HiddenName, and the same
// redaction on every history event except discoveries.
func Mask(s GameState, isAdmin bool) GameState {
	out := s.Clone()
	if isAdmin {
		return out
	}
	for i := range out.HiddenItems {
		if !out.HiddenItems[i].Found {
			out.HiddenItems[i].Name = HiddenName
		}
	}
	for i := range out.History {
		if out.History[i].Type != EventFound {
			out.History[i].Name = HiddenName
		}
	}
	return out
}

// Resolve picks the hidden item a "found" claim refers to. Among items not
// yet found, and comparing case-insensitively, it prefers a match on both
// color and location, then color only, then location only. It never invents
// an item: ok is false when nothing qualifies.
func Resolve(items []HiddenItem, color, location string) (idx int, ok bool) {
	matchers := []func(HiddenItem) bool{
		func(it HiddenItem) bool { return sameText(it.Color, color) && sameText(it.Location, location) },
		func(it HiddenItem) bool { return sameText(it.Color, color) },
		func(it HiddenItem) bool { return sameText(it.Location, location) },
	}
	for _, match := range matchers {
		for i, it := range items {
			if !it.Found && match(it) {
				return i, true
			}
		}
	}
	return -1, false
}

// pushHistory prepends ev and drops the oldest entries beyond MaxHistory.
func pushHistory(h []HistoryEvent, ev HistoryEvent) []HistoryEvent {
	out := make([]HistoryEvent, 0, min(len(h)+1, MaxHistory))
	out = append(out, ev)
	for _, e := range h {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, e)
	}
	return out
}

func sameText(a, b string) bool { return strings.EqualFold(a, b) }
