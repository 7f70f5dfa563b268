// Package registry tracks the open windows of a desktop session, which of
// them are minimized, and their stacking and focus.
//
// A Registry is not safe for concurrent use. The session manager owns one and
// mutates it only from its event loop.
package registry

import (
	"fmt"
	"slices"
	"sort"
)

// Record is one open window.
type Record struct {
	ID      string `json:"id"`
	ZIndex  int    `json:"zIndex"`
	Focused bool   `json:"focused"`
}

// Registry holds the session's open and minimized windows.
type Registry struct {
	records   []*Record
	minimized map[string]bool
	// dock order of minimized windows
	dock  []string
	focus FocusCoordinator
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{minimized: make(map[string]bool)}
}

func (r *Registry) find(id string) (int, *Record) {
	for i, rec := range r.records {
		if rec.ID == id {
			return i, rec
		}
	}
	return -1, nil
}

func (r *Registry) focusOnly(target *Record) {
	for _, rec := range r.records {
		rec.Focused = rec == target
	}
}

// transferFocus moves focus away from a window that is leaving the visible
// set. Focus is left untouched when the window did not hold it.
func (r *Registry) transferFocus(leaving *Record) {
	if !leaving.Focused {
		return
	}
	leaving.Focused = false
	next := r.focus.NextFocus(r.records, r.minimized, leaving.ID)
	if next != nil {
		r.focusOnly(next)
	}
}

// Open adds id as the top-most focused window.
func (r *Registry) Open(id string) error {
	if _, rec := r.find(id); rec != nil {
		return &AlreadyOpenError{ID: id}
	}
	rec := &Record{ID: id}
	r.focus.Raise(rec)
	r.records = append(r.records, rec)
	r.focusOnly(rec)
	return nil
}

// CanClose reports the error Close would return for id.
func (r *Registry) CanClose(id string) error {
	if _, rec := r.find(id); rec == nil {
		return &NotFoundError{ID: id, Reason: reasonNotOpen}
	}
	return nil
}

// CanMinimize reports the error Minimize would return for id.
func (r *Registry) CanMinimize(id string) error {
	return r.CanClose(id)
}

// CanRestore reports the error Restore would return for id.
func (r *Registry) CanRestore(id string) error {
	if err := r.CanClose(id); err != nil {
		return err
	}
	if !r.minimized[id] {
		return &NotFoundError{ID: id, Reason: reasonNotMinimized}
	}
	return nil
}

// CanFocus reports the error Focus would return for id.
func (r *Registry) CanFocus(id string) error {
	if err := r.CanClose(id); err != nil {
		return err
	}
	if r.minimized[id] {
		return &NotFoundError{ID: id, Reason: reasonMinimized}
	}
	return nil
}

// Close removes id from the session. If it was focused, focus moves to the
// next-highest visible window, or to nobody.
func (r *Registry) Close(id string) error {
	i, rec := r.find(id)
	if rec == nil {
		return &NotFoundError{ID: id, Reason: reasonNotOpen}
	}
	r.records = slices.Delete(r.records, i, i+1)
	r.unminimize(id)
	r.transferFocus(rec)
	return nil
}

// Minimize marks id minimized. It stays open but loses focus.
func (r *Registry) Minimize(id string) error {
	_, rec := r.find(id)
	if rec == nil {
		return &NotFoundError{ID: id, Reason: reasonNotOpen}
	}
	if r.minimized[id] {
		return nil
	}
	r.minimized[id] = true
	r.dock = append(r.dock, id)
	r.transferFocus(rec)
	return nil
}

func (r *Registry) unminimize(id string) {
	if !r.minimized[id] {
		return
	}
	delete(r.minimized, id)
	r.dock = slices.DeleteFunc(r.dock, func(d string) bool { return d == id })
}

// Restore brings a minimized window back, focused and on top.
func (r *Registry) Restore(id string) error {
	if err := r.CanRestore(id); err != nil {
		return err
	}
	_, rec := r.find(id)
	r.unminimize(id)
	r.focus.Raise(rec)
	r.focusOnly(rec)
	return nil
}

// Focus raises id above every other window and focuses it.
func (r *Registry) Focus(id string) error {
	if err := r.CanFocus(id); err != nil {
		return err
	}
	_, rec := r.find(id)
	r.focus.Raise(rec)
	r.focusOnly(rec)
	return nil
}

func (r *Registry) IsOpen(id string) bool {
	_, rec := r.find(id)
	return rec != nil
}

func (r *Registry) IsMinimized(id string) bool {
	return r.minimized[id]
}

func (r *Registry) IsFocused(id string) bool {
	_, rec := r.find(id)
	return rec != nil && rec.Focused
}

// ZIndexOf returns the z-index of id.
func (r *Registry) ZIndexOf(id string) (int, bool) {
	_, rec := r.find(id)
	if rec == nil {
		return 0, false
	}
	return rec.ZIndex, true
}

// Focused returns the focused window, if any.
func (r *Registry) Focused() (string, bool) {
	for _, rec := range r.records {
		if rec.Focused {
			return rec.ID, true
		}
	}
	return "", false
}

// Len returns the number of open windows.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns a copy of the open records in insertion order.
func (r *Registry) Records() []Record {
	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		out[i] = *rec
	}
	return out
}

// Stacking returns the open ids from bottom to top.
func (r *Registry) Stacking() []string {
	recs := r.Records()
	sort.Slice(recs, func(i, j int) bool { return recs[i].ZIndex < recs[j].ZIndex })
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids
}

// Visible returns the non-minimized ids from bottom to top.
func (r *Registry) Visible() []string {
	return slices.DeleteFunc(r.Stacking(), func(id string) bool { return r.minimized[id] })
}

// Minimized returns the minimized ids in the order they entered the dock.
func (r *Registry) Minimized() []string {
	return slices.Clone(r.dock)
}

// Validate checks the registry invariants. Minimized windows keep their
// z-index, so the focused window is compared against visible windows only.
func (r *Registry) Validate() error {
	seenZ := make(map[int]string, len(r.records))
	maxZ, focused := 0, 0
	var focusedRec *Record
	for _, rec := range r.records {
		if other, dup := seenZ[rec.ZIndex]; dup {
			return fmt.Errorf("windows %q and %q share z-index %d", other, rec.ID, rec.ZIndex)
		}
		seenZ[rec.ZIndex] = rec.ID
		if !r.minimized[rec.ID] {
			maxZ = max(maxZ, rec.ZIndex)
		}
		if rec.ZIndex > r.focus.Top() {
			return fmt.Errorf("window %q has z-index %d above counter %d", rec.ID, rec.ZIndex, r.focus.Top())
		}
		if rec.Focused {
			focused++
			focusedRec = rec
			if r.minimized[rec.ID] {
				return fmt.Errorf("minimized window %q is focused", rec.ID)
			}
		}
	}
	if focused > 1 {
		return fmt.Errorf("%d windows are focused", focused)
	}
	if focusedRec != nil && focusedRec.ZIndex != maxZ {
		return fmt.Errorf("focused window %q has z-index %d, max is %d", focusedRec.ID, focusedRec.ZIndex, maxZ)
	}
	if len(r.dock) != len(r.minimized) {
		return fmt.Errorf("dock order has %d entries for %d minimized windows", len(r.dock), len(r.minimized))
	}
	for _, id := range r.dock {
		if !r.minimized[id] {
			return fmt.Errorf("dock entry %q is not minimized", id)
		}
		if !r.IsOpen(id) {
			return fmt.Errorf("minimized window %q is not open", id)
		}
	}
	return nil
}
