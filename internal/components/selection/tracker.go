package selection

import (
	"sync"
)

// Tracker keeps the selected post by key while the list around it is
// prepended to, paged and pruned.
type Tracker struct {
	selectedKey string
	keys        []string
	index       map[string]int
	selectedRow int
	// survivors counts keys of the previous list that are still present
	survivors int
	mu        sync.RWMutex
}

// New creates a new selection tracker
func New() *Tracker {
	return &Tracker{
		index: make(map[string]int),
	}
}

// SetKeys replaces the tracked list and restores the selection in it
func (t *Tracker) SetKeys(keys []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := make(map[string]int, len(keys))
	survivors := 0
	for i, k := range keys {
		index[k] = i
		if _, ok := t.index[k]; ok {
			survivors++
		}
	}
	t.keys = append(t.keys[:0:0], keys...)
	t.index = index
	t.survivors = survivors
	return t.restoreLocked()
}

// restoreLocked moves the selected row to wherever the selected key went
func (t *Tracker) restoreLocked() int {
	total := len(t.keys)
	if total == 0 {
		t.selectedRow = 0
		t.selectedKey = ""
		return 0
	}

	if t.selectedKey != "" {
		if row, ok := t.index[t.selectedKey]; ok {
			t.selectedRow = row
			return row
		}
	}

	switch {
	case t.selectedKey != "" && t.survivors == 0:
		// Complete refresh, start over at the head
		t.selectedRow = 0
	case t.selectedRow >= total:
		t.selectedRow = total - 1
	case t.selectedRow < 0:
		t.selectedRow = 0
	}
	t.selectedKey = t.keys[t.selectedRow]
	return t.selectedRow
}

// UpdateSelection selects the row and remembers its key
func (t *Tracker) UpdateSelection(row int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.selectedRow = row
	if row >= 0 && row < len(t.keys) {
		t.selectedKey = t.keys[row]
	}
}

// SelectKey selects key if it is tracked
func (t *Tracker) SelectKey(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.index[key]
	if !ok {
		return false
	}
	t.selectedRow = row
	t.selectedKey = key
	return true
}

// MoveSelection moves the selection by the given delta
func (t *Tracker) MoveSelection(delta int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(t.keys)
	if total == 0 {
		t.selectedRow = 0
		return 0
	}

	newRow := t.selectedRow + delta
	if newRow < 0 {
		newRow = 0
	} else if newRow >= total {
		newRow = total - 1
	}

	t.selectedRow = newRow
	t.selectedKey = t.keys[newRow]
	return t.selectedRow
}

// GetSelectedRow returns the currently selected row index
func (t *Tracker) GetSelectedRow() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selectedRow
}

// GetSelectedKey returns the key of the selected post
func (t *Tracker) GetSelectedKey() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selectedKey
}

// HasSelection returns true if there is a current selection
func (t *Tracker) HasSelection() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selectedKey != ""
}

// IsSelected returns true if key is the selected post
func (t *Tracker) IsSelected(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return key != "" && t.selectedKey == key
}

// Count returns the number of tracked keys
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}

// Clear clears all selection data
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.selectedKey = ""
	t.keys = nil
	t.index = make(map[string]int)
	t.selectedRow = 0
	t.survivors = 0
}
