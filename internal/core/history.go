package core

import (
	"sync"
	"time"
)

// DefaultHistoryLimit bounds the number of snapshots a History keeps.
const DefaultHistoryLimit = 50

// HistoryEntry is one recorded grid state.
type HistoryEntry struct {
	Snapshot  Grid      `json:"-"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a linear undo/redo log of grid snapshots.
//
// Snapshots are deep copies both when recorded and when returned, so callers
// can never alias stored state. Recording after an undo discards the redo
// tail. When the log exceeds its limit the oldest entries are dropped.
// History is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	pos     int
	limit   int
	now     func() time.Time
}

// NewHistory creates an empty history keeping at most limit entries.
// A limit of zero or less means DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{pos: -1, limit: limit, now: time.Now}
}

// Record truncates any entries after the current position and appends a
// copy of grid labelled label.
func (h *History) Record(grid Grid, label string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.pos+1], HistoryEntry{
		Snapshot:  grid.Clone(),
		Label:     label,
		Timestamp: h.now(),
	})
	h.pos++

	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]HistoryEntry(nil), h.entries[over:]...)
		h.pos -= over
	}
}

// Undo steps back one entry. It returns false at the first entry.
func (h *History) Undo() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos <= 0 {
		return HistoryEntry{}, false
	}
	h.pos--
	return h.entryAt(h.pos), true
}

// Redo steps forward one entry. It returns false at the last entry.
func (h *History) Redo() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos >= len(h.entries)-1 {
		return HistoryEntry{}, false
	}
	h.pos++
	return h.entryAt(h.pos), true
}

// Current returns the entry at the current position.
func (h *History) Current() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos < 0 {
		return HistoryEntry{}, false
	}
	return h.entryAt(h.pos), true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos < len(h.entries)-1
}

// Position returns the current index, or -1 when empty.
func (h *History) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Labels lists entry labels in order.
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	labels := make([]string, len(h.entries))
	for i, e := range h.entries {
		labels[i] = e.Label
	}
	return labels
}

// Clear discards every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.pos = -1
}

func (h *History) entryAt(i int) HistoryEntry {
	e := h.entries[i]
	e.Snapshot = e.Snapshot.Clone()
	return e
}
