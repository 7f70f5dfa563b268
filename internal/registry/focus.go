package registry

// FocusCoordinator hands out z-indices from a counter that only moves up.
// Re-focusing always yields a value strictly above anything currently held.
type FocusCoordinator struct {
	counter int
}

// Raise assigns the next top z-index to rec.
func (f *FocusCoordinator) Raise(rec *Record) {
	f.counter++
	rec.ZIndex = f.counter
}

// Top returns the last z-index handed out.
func (f *FocusCoordinator) Top() int {
	return f.counter
}

// NextFocus picks the open, non-minimized record with the highest z-index,
// skipping exclude. It returns nil when no candidate remains.
func (f *FocusCoordinator) NextFocus(records []*Record, minimized map[string]bool, exclude string) *Record {
	var best *Record
	for _, r := range records {
		if r.ID == exclude || minimized[r.ID] {
			continue
		}
		if best == nil || r.ZIndex > best.ZIndex {
			best = r
		}
	}
	return best
}
